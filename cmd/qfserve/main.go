// qfserve loads a SQLite snapshot and serves read-only JSON and CSV views of
// it over HTTP. Send SIGUSR1 for a status line and SIGHUP to reload the
// snapshot from disk.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/carbocation/qfeatures"
	_ "github.com/carbocation/qfeatures/compileinfoprint"
	"github.com/carbocation/qfeatures/server"
	"github.com/carbocation/qfeatures/sqlitestore"
)

func main() {
	errors := make(chan error, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGUSR1,
		syscall.SIGHUP,
	)

	dbPath := flag.String("db", "", "Path to a SQLite snapshot written by qfaggregate.")
	port := flag.Int("port", 9019, "Port for HTTP server")
	flag.Parse()

	if *dbPath == "" {
		flag.PrintDefaults()
		return
	}

	logger := log.New(os.Stderr, log.Prefix(), log.Ldate|log.Ltime)

	c, err := load(*dbPath, logger)
	if err != nil {
		log.Fatalln(err)
	}

	srv := server.New(c, logger)
	logger.Println("Loaded", *dbPath, "with assays", c.Names())

	go func() {
		logger.Println("Starting HTTP server on port", *port)
		if err := http.ListenAndServe(fmt.Sprintf(`:%d`, *port), srv.Router()); err != nil {
			errors <- err
			logger.Println(err)
			sig <- syscall.SIGTERM
			return
		}
	}()

Outer:
	for {
		select {
		case sigl := <-sig:
			switch sigl {
			case syscall.SIGUSR1:
				logger.Println("There are", runtime.NumGoroutine(), "goroutines running; serving state", srv.Container().State())
				continue
			case syscall.SIGHUP:
				next, err := load(*dbPath, logger)
				if err != nil {
					logger.Println("Reload failed, keeping the current snapshot:", err)
					continue
				}
				srv.Swap(next)
				logger.Println("Reloaded", *dbPath)
				continue
			}

			logger.Printf("\nExit: %s\n", sigl.String())
			break Outer

		case err := <-errors:
			if err == nil {
				logger.Println("Finished")
				break Outer
			}

			logger.Println("Exiting due to error", err)
			os.Exit(1)
		}
	}
}

func load(path string, logger *log.Logger) (*qfeatures.Container, error) {
	db, err := sqlitestore.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return sqlitestore.Load(db, qfeatures.WithLogger(logger))
}
