package main

import (
	"context"
	"github.com/callebjorkell/rfid-jukebox/config"
	"github.com/callebjorkell/rfid-jukebox/jukebox"
	"github.com/callebjorkell/rfid-jukebox/nfc"
	"github.com/callebjorkell/rfid-jukebox/ui"
	"github.com/callebjorkell/rfid-jukebox/yx5300"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
	"os"
	"os/signal"
	"syscall"
)

var (
	app        = kingpin.New("rfid-jukebox", "Jukebox that plays folders from a YX5300 MP3 module when RFID cards are put on an RC522 reader.")
	debug      = app.Flag("debug", "Enable debug logging.").Bool()
	configFile = app.Flag("config", "YAML file with the device wiring.").Short('c').ExistingFile()
	portFlag   = app.Flag("port", "Serial port of the MP3 module. Overrides the config file.").String()
	dbFlag     = app.Flag("db", "Card history database. Overrides the config file.").String()
	noHistory  = app.Flag("no-history", "Do not record scanned cards.").Bool()

	start = app.Command("start", "Start the jukebox and start listening for cards.").Default()

	play       = app.Command("play", "Play a folder right away, then keep listening for cards.")
	playFolder = play.Arg("folder", "The folder (0-99) to play.").Required().Int()
	playTrack  = play.Arg("track", "The track in the folder to start from.").Default("1").Int()

	sleep      = app.Command("sleep", "Put the MP3 module to sleep.")
	info       = app.Command("info", "Print what the MP3 module reports about its SD card.")
	infoFolder = info.Flag("folder", "Also count the files in this folder.").Default("-1").Int()

	dump       = app.Command("dump", "Read a card and dump all the available information onto standard out.")
	dumpCardId = dump.Flag("cardId", "Manually specify the card id to be used.").String()
	dumpList   = dump.Flag("list", "Dump a short list of all the cards in the history.").Bool()

	forget       = app.Command("forget", "Remove a card from the history.")
	forgetCardId = forget.Flag("cardId", "Manually specify the card id to be removed.").String()

	label           = app.Command("label", "Create a label for a card.")
	labelFolder     = label.Flag("folder", "The folder the label is for. If not provided, a card will be requested.").Default("-1").Int()
	labelCardId     = label.Flag("cardId", "Manually specify the card that the label should be printed for.").String()
	labelTitle      = label.Flag("title", "Text printed under the folder number.").String()
	labelCover      = label.Flag("cover", "PNG or JPEG to put on the label.").ExistingFile()
	labelFont       = label.Flag("font", "TTF font file to render the text with.").ExistingFile()
	labelOutputFile = label.Flag("out", "Where to write the PNG. Defaults to folderNN.png.").String()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		// a second signal kills the process the default way
		<-ctx.Done()
		stop()
	}()

	switch cmd {
	case start.FullCommand():
		startJukebox(ctx, -1, 0)
	case play.FullCommand():
		if *playFolder < 0 || *playFolder >= jukebox.Folders {
			kingpin.Fatalf("folder must be between 0 and %d", jukebox.Folders-1)
		}
		if *playTrack < 1 || *playTrack > jukebox.MaxTrack {
			kingpin.Fatalf("track must be between 1 and %d", jukebox.MaxTrack)
		}
		startJukebox(ctx, *playFolder, *playTrack)
	case sleep.FullCommand():
		sleepModule(ctx)
	case info.FullCommand():
		moduleInfo(ctx, *infoFolder)
	case dump.FullCommand():
		if *dumpList {
			dumpAll()
		} else {
			dumpCard(*dumpCardId)
		}
	case forget.FullCommand():
		removeCard(*forgetCardId)
	case label.FullCommand():
		createLabel()
	default:
		kingpin.FatalUsage("Unrecognized command")
	}
}

func loadConfig() *config.Config {
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		log.Fatal(err)
	}

	if *portFlag != "" {
		cfg.Player.Port = *portFlag
	}
	if *dbFlag != "" {
		cfg.History.Path = *dbFlag
	}
	if *noHistory {
		cfg.History.Disabled = true
	}
	return cfg
}

func openReader(cfg *config.Config) nfc.Reader {
	rc, err := cfg.NFC()
	if err != nil {
		log.Fatal(err)
	}
	reader, err := nfc.CreateReader(rc)
	if err != nil {
		log.Fatal(err)
	}
	return reader
}

func openModule(cfg *config.Config) *yx5300.Module {
	m, err := yx5300.Open(cfg.Player.Port)
	if err != nil {
		log.Fatal(err)
	}
	return m
}

func openDB(cfg *config.Config) *nfc.DB {
	db, err := nfc.NewDB(cfg.History.Path)
	if err != nil {
		log.Fatal(err)
	}
	return db
}

// startJukebox runs the control loop until a signal arrives. A folder of 0 or more is played right away.
func startJukebox(ctx context.Context, folder, track int) {
	cfg := loadConfig()

	reader := openReader(cfg)
	defer reader.Close()
	module := openModule(cfg)
	defer module.Close()

	opts := []jukebox.Option{
		jukebox.WithReplyTimeout(cfg.Player.ReplyTimeout),
		jukebox.WithLoopInterval(cfg.Loop.Interval),
	}
	if !cfg.LED.Disabled {
		if led, err := ui.GetStatusLED(cfg.LED.Pin); err != nil {
			log.Warnf("Running without status LED: %v", err)
		} else {
			defer led.Off()
			opts = append(opts, jukebox.WithIndicator(led))
		}
	}
	if !cfg.History.Disabled {
		db := openDB(cfg)
		defer db.Close()
		opts = append(opts, jukebox.WithHistory(db))
	}

	c := jukebox.New(reader, module, opts...)
	if err := c.Boot(ctx); err != nil {
		log.Warnf("Shutting down before the module came up: %v", err)
		return
	}
	if folder >= 0 {
		c.Play(folder, track)
	}

	log.Info("Waiting for cards")
	c.Run(ctx)
	log.Info("Shutting down")
}
