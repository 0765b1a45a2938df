package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"blogfront/pkg/blog"
	"blogfront/pkg/controller"
	"blogfront/pkg/devserver"
	"blogfront/pkg/journal"
	"blogfront/pkg/page"
)

type Config struct {
	ServiceName string `toml:"serviceName"`
	BaseURL     string `toml:"baseURL"`
	Timeout     string `toml:"timeout"`
	LogLevel    string `toml:"logLevel"`
	PagePath    string `toml:"pagePath"`

	KafkaAddr  string `toml:"kafkaAddr"`
	KafkaTopic string `toml:"kafkaTopic"`
	KafkaBatch int    `toml:"kafkaBatch"`
}

func main() {
	var (
		configPath string
		pagePath   string
		baseURL    string
		logLevel   string
		kafkaAddr  string
		kafkaTopic string
		kafkaBatch int
		dev        bool
	)

	flag.StringVar(&configPath, "config", "cmd/blogfront/config.toml", "Path to TOML config file")
	flag.StringVar(&pagePath, "page", "", "Path to the HTML page to load.")
	flag.StringVar(&baseURL, "base", "", "Base URL of the blog service.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&kafkaAddr, "kafka", "", "Kafka server address in the form 'host:port'.")
	flag.StringVar(&kafkaTopic, "topic", "", "Kafka topic.")
	flag.IntVar(&kafkaBatch, "batch", 0, "Kafka batch size.")
	flag.BoolVar(&dev, "dev", false, "Run an in-memory blog service and send requests to it.")
	flag.Parse()

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[blogfront] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if pagePath != "" {
		cfg.PagePath = pagePath
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if kafkaAddr != "" {
		cfg.KafkaAddr = kafkaAddr
	}
	if kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}
	if kafkaBatch != 0 {
		cfg.KafkaBatch = kafkaBatch
	}

	switch cfg.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	timeout := 5 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			log.Fatalf("[blogfront] invalid timeout %q: %v", cfg.Timeout, err)
		}
		timeout = d
	}

	f, err := os.Open(cfg.PagePath)
	if err != nil {
		log.Fatalf("[blogfront] failed to open page %s: %v", cfg.PagePath, err)
	}
	p, err := page.Parse(f)
	f.Close()
	if err != nil {
		log.Fatalf("[blogfront] failed to parse page %s: %v", cfg.PagePath, err)
	}

	loop := page.NewLoop()
	defer loop.Close()

	if dev {
		var ids []string
		err := loop.Do(func() {
			p.IndexPosts()
			ids = p.PostIDs()
		})
		if err != nil {
			log.Fatalf("[blogfront] failed to index posts: %v", err)
		}
		addr, stop, err := startDevServer(ids)
		if err != nil {
			log.Fatalf("[blogfront] failed to start dev server: %v", err)
		}
		defer stop()
		cfg.BaseURL = "http://" + addr
		log.Infof("[blogfront] dev server with %d posts listening on %s", len(ids), addr)
	}
	if cfg.BaseURL == "" {
		log.Fatal("[blogfront] blog service base URL is not set, use -base or -dev")
	}

	var j *journal.Journal
	if cfg.KafkaAddr != "" && cfg.KafkaTopic != "" {
		if err := journal.CreateTopic(cfg.KafkaAddr, cfg.KafkaTopic); err != nil {
			log.Warnf("[blogfront] failed to create Kafka topic: %v", err)
		}
		j = journal.New(cfg.ServiceName, journal.NewKafkaWriter(cfg.KafkaAddr, cfg.KafkaTopic, cfg.KafkaBatch))
		defer func() {
			if err := j.Close(); err != nil {
				log.Errorf("[blogfront] failed to close journal: %v", err)
			}
		}()
	} else {
		log.Warnf("[blogfront] kafka was not configured, actions will not be sent to Kafka")
	}

	stdin := bufio.NewReader(os.Stdin)
	client := blog.New(cfg.BaseURL, blog.WithTimeout(timeout))
	ctl := controller.New(p, loop, client,
		controller.WithTimeout(timeout),
		controller.WithConfirmer(controller.NewPromptConfirmer(stdin, os.Stdout)),
		controller.WithObserver(controller.ObserverFunc(func(o controller.Outcome) {
			printOutcome(o)
			if j != nil {
				j.Observe(o)
			}
		})),
	)
	err = loop.Do(func() {
		ctl.Setup(p.Root(), controller.DefaultBindings())
	})
	if err != nil {
		log.Fatalf("[blogfront] failed to bind page handlers: %v", err)
	}

	sh := shell{page: p, loop: loop, ctl: ctl, in: stdin, out: os.Stdout}
	sh.run()
}

// startDevServer serves an in-memory blog service with the given posts on a
// free local port.
func startDevServer(postIDs []string) (string, func(), error) {
	db := devserver.NewStore()
	db.AddPosts(postIDs...)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: devserver.New(db).Router()}
	go func() {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("[devserver] stopped: %v", err)
		}
	}()

	return ln.Addr().String(), func() { srv.Close() }, nil
}

func printOutcome(o controller.Outcome) {
	switch {
	case o.Declined:
		fmt.Printf("%s %s: declined\n", o.Action, o.PostID)
	case o.Err != nil:
		fmt.Printf("%s %s: failed (%v)\n", o.Action, o.PostID, o.Err)
	default:
		fmt.Printf("%s %s: ok in %v\n", o.Action, o.PostID, o.Duration.Round(time.Millisecond))
	}
}
