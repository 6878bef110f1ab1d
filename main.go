package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/peterbourgon/ff"
	log "github.com/sirupsen/logrus"

	"github.com/raceline/track-server/api"
	"github.com/raceline/track-server/live"
	"github.com/raceline/track-server/track"
	"github.com/raceline/track-server/wind"
	"github.com/raceline/track-server/xmpp"
)

func main() {

	fs := flag.NewFlagSet("track-server", flag.ExitOnError)
	var (
		listen       = fs.String("listen", ":8888", "http listen address")
		gribDir      = fs.String("grib-dir", "", "directory of GRIB2 wind files, empty to disable")
		debug        = fs.Bool("debug", false, "enable debug logging")
		cpuprofile   = fs.Bool("cpuprofile", false, "profile export requests")
		xmppHost     = fs.String("xmpp-host", "", "")
		xmppJid      = fs.String("xmpp-jid", "", "")
		xmppPassword = fs.String("xmpp-password", "", "")
		xmppTo       = fs.String("xmpp-to", "", "")
	)
	ff.Parse(fs, os.Args[1:], ff.WithEnvVarNoPrefix())

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	x := &xmpp.Notifier{Config: xmpp.Config{
		Host:     *xmppHost,
		Jid:      *xmppJid,
		Password: *xmppPassword,
		To:       *xmppTo,
	}}

	log.Info("Load winds")
	winds := wind.Load(*gribDir)

	svc := track.NewService()
	adapter := live.NewAdapter(x)

	log.Info("Start server")

	router := api.InitServer(*cpuprofile, svc, winds, x, adapter)

	handler := handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(router)
	handler = handlers.CombinedLoggingHandler(os.Stdout, handler)

	log.Fatal(http.ListenAndServe(*listen, handler))
}
