package torrent

// Version of the client. Overridden with ldflags at release builds.
var Version = "0.0.0"
