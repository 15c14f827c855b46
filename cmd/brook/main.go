package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/log"
	"github.com/urfave/cli"

	"github.com/cenkalti/brook/internal/jsonutil"
	"github.com/cenkalti/brook/internal/logger"
	"github.com/cenkalti/brook/internal/stringutil"
	"github.com/cenkalti/brook/torrent"
)

var cfg = torrent.DefaultConfig

func main() {
	app := cli.NewApp()
	app.Name = "brook"
	app.Usage = "manages a queue of torrents"
	app.Version = torrent.Version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "~/.brook/config.yaml",
			Usage: "read configuration from `FILE`",
		},
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "enable debug log",
		},
	}
	app.Before = handleBeforeCommand
	app.Commands = []cli.Command{
		{
			Name:      "add",
			Usage:     "add a torrent file to the session",
			ArgsUsage: "<torrent file>",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "stopped",
					Usage: "add in stopped state",
				},
				cli.BoolFlag{
					Name:  "no-queue",
					Usage: "start immediately, ignoring the slot limits",
				},
			},
			Action: handleAdd,
		},
		{
			Name:   "run",
			Usage:  "run the session until interrupted, printing alerts",
			Action: handleRun,
		},
		{
			Name:   "list",
			Usage:  "print the status of all torrents in the session",
			Action: handleList,
		},
		{
			Name:      "remove",
			Usage:     "remove the torrent with the given ID from the session",
			ArgsUsage: "<torrent id>",
			Action:    handleRemove,
		},
		{
			Name:      "export",
			Usage:     "write the torrent file rebuilt from stored metadata",
			ArgsUsage: "<torrent id>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "write to `FILE` instead of stdout",
				},
			},
			Action: handleExport,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func handleBeforeCommand(c *cli.Context) error {
	if c.GlobalBool("debug") {
		logger.SetDebug()
	}
	err := cfg.LoadConfig(c.GlobalString("config"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func handleAdd(c *cli.Context) error {
	arg := c.Args().Get(0)
	if arg == "" {
		return cli.NewExitError("give a torrent file as first argument", 1)
	}
	ses, err := torrent.New(cfg)
	if err != nil {
		return err
	}
	defer ses.Close()
	f, err := os.Open(arg)
	if err != nil {
		return err
	}
	defer f.Close()
	t, err := ses.AddTorrent(f, &torrent.AddTorrentOptions{
		Paused:      c.Bool("stopped"),
		AutoManaged: !c.Bool("stopped") && !c.Bool("no-queue"),
	})
	if err != nil {
		return err
	}
	fmt.Println(t.ID())
	return nil
}

func handleRun(c *cli.Context) error {
	ses, err := torrent.New(cfg)
	if err != nil {
		return err
	}
	defer ses.Close()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, a := range ses.PopAlerts() {
				printAlert(ses, a)
			}
		case sig := <-ch:
			log.Noticef("received %s, stopping session", sig)
			return nil
		}
	}
}

func printAlert(ses *torrent.Session, a torrent.Alert) {
	name := a.TorrentID()
	if t := ses.GetTorrent(a.TorrentID()); t != nil {
		name = stringutil.Printable(t.Name())
	}
	switch alert := a.(type) {
	case torrent.TorrentAddedAlert:
		log.Noticef("added torrent: %q", stringutil.Printable(alert.Name))
	case torrent.TorrentResumedAlert:
		log.Noticef("resumed torrent: %q", name)
	case torrent.TorrentPausedAlert:
		log.Noticef("paused torrent: %q", name)
	case torrent.TorrentFinishedAlert:
		log.Noticef("finished torrent: %q", name)
	case torrent.StateChangedAlert:
		log.Infof("torrent %q state: %s -> %s", name, alert.Prev, alert.State)
	case torrent.TrackerAnnounceAlert:
		log.Infof("announcing torrent %q to %s", name, alert.TrackerURL)
	case torrent.TorrentErrorAlert:
		log.Errorf("torrent %q error: %s", name, alert.Err.Error())
	}
}

func handleList(c *cli.Context) error {
	ses, err := torrent.New(cfg)
	if err != nil {
		return err
	}
	defer ses.Close()
	for _, t := range ses.ListTorrents() {
		b, err := jsonutil.MarshalPrettyLines(statusView(t.Status()))
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	}
	return nil
}

// statusLine is the console representation of a torrent status. Timestamps
// are formatted as strings so they print as single values.
type statusLine struct {
	ID            string
	Name          string
	InfoHash      string
	State         string
	Paused        bool
	AutoManaged   bool
	Finished      bool
	Seeding       bool
	QueuePosition int64
	BytesLeft     int64
	AddedAt       string
	CompletedAt   string
	Error         string
}

func statusView(st torrent.Status) statusLine {
	line := statusLine{
		ID:            st.ID,
		Name:          st.Name,
		InfoHash:      st.InfoHash,
		State:         st.State,
		Paused:        st.Paused,
		AutoManaged:   st.AutoManaged,
		Finished:      st.Finished,
		Seeding:       st.Seeding,
		QueuePosition: st.QueuePosition,
		BytesLeft:     st.BytesLeft,
		AddedAt:       st.AddedAt.Format(time.RFC3339),
		Error:         st.Error,
	}
	if !st.CompletedAt.IsZero() {
		line.CompletedAt = st.CompletedAt.Format(time.RFC3339)
	}
	return line
}

func handleRemove(c *cli.Context) error {
	id := c.Args().Get(0)
	if id == "" {
		return cli.NewExitError("give a torrent ID as first argument", 1)
	}
	ses, err := torrent.New(cfg)
	if err != nil {
		return err
	}
	defer ses.Close()
	return ses.RemoveTorrent(id)
}

func handleExport(c *cli.Context) error {
	id := c.Args().Get(0)
	if id == "" {
		return cli.NewExitError("give a torrent ID as first argument", 1)
	}
	ses, err := torrent.New(cfg)
	if err != nil {
		return err
	}
	defer ses.Close()
	t := ses.GetTorrent(id)
	if t == nil {
		return cli.NewExitError("torrent not found: "+id, 1)
	}
	b, err := t.WriteTorrent()
	if err != nil {
		return err
	}
	if out := c.String("out"); out != "" {
		return os.WriteFile(out, b, 0o640)
	}
	_, err = os.Stdout.Write(b)
	return err
}
