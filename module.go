package main

import (
	"context"
	"fmt"
	"github.com/callebjorkell/rfid-jukebox/jukebox"
	"github.com/callebjorkell/rfid-jukebox/yx5300"
	log "github.com/sirupsen/logrus"
)

func sleepModule(ctx context.Context) {
	cfg := loadConfig()
	m := openModule(cfg)
	defer m.Close()

	s := jukebox.NewSynchronizer(m, cfg.Player.ReplyTimeout)
	log.Info("Sleeping")
	st, err := s.ConfirmContext(ctx, yx5300.Sleep())
	if err != nil {
		log.Warn(err)
		return
	}
	log.Infof("Module answered %v", st)
}

func moduleInfo(ctx context.Context, folder int) {
	cfg := loadConfig()
	m := openModule(cfg)
	defer m.Close()

	s := jukebox.NewSynchronizer(m, cfg.Player.ReplyTimeout)
	if _, err := s.ConfirmContext(ctx, yx5300.WakeUp()); err != nil {
		log.Warn(err)
		return
	}
	defer func() {
		// the module is left awake if the sleep is interrupted
		if _, err := s.ConfirmContext(ctx, yx5300.Sleep()); err != nil {
			log.Warn(err)
		}
	}()

	type query struct {
		name string
		cmd  yx5300.Command
		want yx5300.StatusCode
	}
	queries := []query{
		{"Status", yx5300.QueryStatus(), yx5300.StatusStatus},
		{"Volume", yx5300.QueryVolume(), yx5300.StatusVolume},
		{"Folders", yx5300.QueryTotalFolders(), yx5300.StatusTotFolders},
		{"Files", yx5300.QueryTotalFiles(), yx5300.StatusTotFiles},
	}
	if folder >= 0 && folder < jukebox.Folders {
		name := fmt.Sprintf("Folder %02d", folder)
		queries = append(queries, query{name, yx5300.QueryFolderFiles(uint8(folder)), yx5300.StatusFldrFiles})
	}

	for _, q := range queries {
		if ctx.Err() != nil {
			return
		}
		st := s.Exchange(q.cmd)
		// the module acknowledges a query before it answers it
		if st.Code == yx5300.StatusAckOK {
			st = s.Await()
		}
		if st.Code != q.want {
			fmt.Printf("%9v │ no answer (%v)\n", q.name, st)
			continue
		}
		fmt.Printf("%9v │ %v\n", q.name, st.Data)
	}
}
