package bencode

import (
	"bytes"
	"io"
	"strconv"
)

// Encode writes the canonical bencoding of e to w.
// Dictionary keys are written in ascending byte order regardless of how they
// were inserted. Preformatted entries are written verbatim.
func (e *Entry) Encode(w io.Writer) error {
	bw, ok := w.(byteStringWriter)
	if !ok {
		buf := bytes.NewBuffer(nil)
		if err := e.encode(buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
	return e.encode(bw)
}

// Bencode returns the canonical bencoding of e.
func (e *Entry) Bencode() []byte {
	var buf bytes.Buffer
	_ = e.encode(&buf)
	return buf.Bytes()
}

type byteStringWriter interface {
	io.Writer
	WriteByte(byte) error
	WriteString(string) (int, error)
}

func (e *Entry) encode(w byteStringWriter) error {
	switch e.kind {
	case Integer:
		if err := w.WriteByte('i'); err != nil {
			return err
		}
		if _, err := w.WriteString(strconv.FormatInt(e.integer, 10)); err != nil {
			return err
		}
		return w.WriteByte('e')
	case String:
		if _, err := w.WriteString(strconv.Itoa(len(e.str))); err != nil {
			return err
		}
		if err := w.WriteByte(':'); err != nil {
			return err
		}
		_, err := w.WriteString(e.str)
		return err
	case List:
		if err := w.WriteByte('l'); err != nil {
			return err
		}
		for _, item := range e.list {
			if err := item.encode(w); err != nil {
				return err
			}
		}
		return w.WriteByte('e')
	case Dict:
		if err := w.WriteByte('d'); err != nil {
			return err
		}
		for _, k := range e.Keys() {
			if _, err := w.WriteString(strconv.Itoa(len(k))); err != nil {
				return err
			}
			if err := w.WriteByte(':'); err != nil {
				return err
			}
			if _, err := w.WriteString(k); err != nil {
				return err
			}
			if err := e.dict[k].encode(w); err != nil {
				return err
			}
		}
		return w.WriteByte('e')
	case Preformatted:
		_, err := w.Write(e.pre)
		return err
	default:
		return errUndefinedEntry
	}
}
