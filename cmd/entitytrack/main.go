package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/tutumagi/mcentity"
	"github.com/tutumagi/mcentity/entity"
	"github.com/tutumagi/mcentity/event"
	"github.com/tutumagi/mcentity/logger"
	"github.com/tutumagi/mcentity/protocol"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "config file (yaml, json or toml)")
	sessionID := flag.String("session", "", "session to track, a random one if empty")
	serverType := flag.String("type", "entitytrack", "server type, used for metrics and the log file name")
	flag.Parse()

	conf := viper.New()
	if *configFile != "" {
		conf.SetConfigFile(*configFile)
		if err := conf.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "read config: %v\n", err)
			os.Exit(1)
		}
	}

	if err := mcentity.Configure(*serverType, conf); err != nil {
		logger.Fatal("failed to configure", zap.Error(err))
	}

	id := *sessionID
	if id == "" {
		id = uuid.New().String()
	}

	s, err := mcentity.NewSession(id)
	if err != nil {
		logger.Fatal("failed to create session", zap.String("session", id), zap.Error(err))
	}

	for _, name := range event.Names {
		s.Tracker().On(name, logEvent(id, name))
	}

	s.Start(context.Background())
	go func() {
		<-s.Done()
		if err := s.Err(); err != nil {
			logger.Error("session failed", zap.String("session", id), zap.Error(err))
		}
		mcentity.Shutdown()
	}()

	mcentity.Start()
}

func logEvent(session string, name event.Name) event.Handler {
	return func(ctx context.Context, en *entity.Entity, pk *protocol.Packet) error {
		logger.Debug(string(name),
			zap.String("session", session),
			zap.Int32("id", en.ID),
			zap.String("name", en.Name),
			zap.String("type", en.Type),
			zap.Stringer("position", en.Position),
			zap.Float64("yaw", en.Yaw),
			zap.Float64("pitch", en.Pitch),
			zap.Bool("valid", en.IsValid),
		)
		return nil
	}
}
