package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"

	"github.com/localcomicreader/readerd/pkg/config"
	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/httpapi"
	"github.com/localcomicreader/readerd/pkg/progress"
	"github.com/localcomicreader/readerd/pkg/reader"
	"github.com/localcomicreader/readerd/pkg/version"
)

type options struct {
	ConfigFile string `short:"c" long:"config" description:"Path to the config file" env:"READERD_CONFIG_FILE"`
}

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		log.Err(err).Fatal("flags parse error")
	}
	if opts.ConfigFile != "" {
		os.Setenv("READERD_CONFIG_FILE", opts.ConfigFile)
	}

	log.Info("starting readerd", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if err := initCacheDir(cfg.CacheDir); err != nil {
		log.Err(err).Fatal("cache directory error")
	}
	log.Info("cache directory initialized", logger.Data{"path": cfg.CacheDir})

	store, err := progress.NewAt(filepath.Join(cfg.CacheDir, "state", "progress.json"))
	if err != nil {
		log.Err(err).Fatal("progress store error")
	}

	budget := coretypes.CacheBudget{BytesMax: cfg.CacheBudgetBytes}
	core, err := reader.New(cfg.CacheDir, budget, store)
	if err != nil {
		log.Err(err).Fatal("reader core error")
	}
	log.Info("reader core initialized")

	e := httpapi.New(core)
	srv := &http.Server{Handler: e}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind address")
		}

		actualPort := listener.Addr().(*net.TCPAddr).Port
		log.Info("server started", logger.Data{"port": actualPort})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	if err := srv.Shutdown(ctx); err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")
}

// initCacheDir creates the cache root and the progress store's state
// directory, and verifies the root is writable. Disk cache shard
// directories are created later, on first write.
func initCacheDir(dir string) error {
	subdirs := []string{
		dir,
		filepath.Join(dir, "state"),
	}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(subdir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create cache directory: %s", subdir)
		}
	}

	testFile := filepath.Join(dir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return errors.Wrapf(err, "cache directory is not writable: %s", dir)
	}
	f.Close()

	if err := os.Remove(testFile); err != nil {
		return errors.Wrapf(err, "failed to clean up write test file: %s", testFile)
	}
	return nil
}
