package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Camilejo/TallerBDRedis/adapters/controller"
	papi "github.com/Camilejo/TallerBDRedis/adapters/controller/api"
	"github.com/Camilejo/TallerBDRedis/adapters/gateway/broker"
	"github.com/Camilejo/TallerBDRedis/adapters/gateway/mqtt"
	"github.com/Camilejo/TallerBDRedis/adapters/gateway/ws"
	crypto_util "github.com/Camilejo/TallerBDRedis/crypto-util"
	"github.com/Camilejo/TallerBDRedis/middleware"
	"github.com/Camilejo/TallerBDRedis/model"
	"github.com/Camilejo/TallerBDRedis/service"
)

const (
	config  = "config.yaml"
	version = 0.1
	seed    = "this is my test"
)

var CompileDate string

type Config struct {
	controller.ControllerConfig `yaml:"ControllerConfig"`
	service.SimulatorConfig     `yaml:"SimulatorConfig"`
	broker.Config               `yaml:"BrokerConfig"`
	Mqtt                        mqtt.Config `yaml:"Mqtt"`
	Ws                          ws.Config   `yaml:"Ws"`
	Duration                    int         `yaml:"Duration"`
	LogLevel                    int         `yaml:"LogLevel"`
	EncryptionFlag              int         `yaml:"EncryptionFlag"`
}

func main() {
	var (
		conf      Config
		bridge    *broker.Broker
		sim       *service.Simulator
		ingest    model.IIngest
		hub       *ws.Hub
		forwarder *mqtt.Forwarder
		api       *papi.Api
		wg        *sync.WaitGroup
		ctx       context.Context
		cancel    context.CancelFunc
		sig       chan os.Signal
		args      []string
		err       error
	)
	args = os.Args

	fmt.Println("Starting weather-sensor-bridge v", version)
	fmt.Println(CompileDate)

	wg = &sync.WaitGroup{}

	if len(args) == 1 {
		conf = openConfigFile(config)
	} else {
		conf = openConfigFile(args[1])
	}

	if conf.EncryptionFlag == 1 {
		conf.Mqtt.Connection, err = decrypt(conf.Mqtt.Connection)
		if err != nil {
			log.Error().Err(err).Msg("Failed to decrypt")
			os.Exit(-1)
		}
	}

	// provide additional info for the config/API
	conf.ControllerConfig.CompileDate = CompileDate
	conf.ControllerConfig.Version = fmt.Sprintf("%.2f", version)
	conf.ControllerConfig.LogLevel = conf.LogLevel
	conf.ControllerConfig.EncryptionFlag = conf.EncryptionFlag
	conf.ControllerConfig.MqttConnection = conf.Mqtt.Connection
	conf.ControllerConfig.MqttTopic = conf.Mqtt.Topic
	conf.ControllerConfig.TickInterval = conf.SimulatorConfig.TickInterval

	// log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel + zerolog.Level(conf.LogLevel))
	conf.SimulatorConfig.LogLevel = conf.LogLevel
	conf.Config.LogLevel = conf.LogLevel
	conf.Mqtt.LogLevel = conf.LogLevel
	conf.Ws.LogLevel = conf.LogLevel

	fmt.Printf("Log level: ")
	switch zerolog.InfoLevel + zerolog.Level(conf.LogLevel) {
	case 5:
		fmt.Println("panic")
		conf.ControllerConfig.LogLevelString = "Panic"
	case 4:
		fmt.Println("fatal")
		conf.ControllerConfig.LogLevelString = "Fatal"
	case 3:
		fmt.Println("error")
		conf.ControllerConfig.LogLevelString = "Error"
	case 2:
		fmt.Println("warning")
		conf.ControllerConfig.LogLevelString = "Warning"
	case 1:
		fmt.Println("info")
		conf.ControllerConfig.LogLevelString = "Info"
	case 0:
		fmt.Println("debug")
		conf.ControllerConfig.LogLevelString = "Debug"
	case -1:
		fmt.Println("trace")
		conf.ControllerConfig.LogLevelString = "Trace"
	}

	// duration of the service (exit after duration)
	if conf.Duration > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(conf.Duration)*time.Minute)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// the distribution bridge decouples the simulator from every observer
	bridge = broker.New(conf.Config)

	// simulator core, publishing through the bridge
	sim = service.NewSimulator(conf.SimulatorConfig, bridge)

	// ingest service with logging middleware
	ingest = service.NewIngest(bridge)
	ingest = middleware.NewLogger(conf.ControllerConfig, ingest)

	// websocket fan-out for the dashboard
	hub = ws.NewHub(conf.Ws, bridge)
	hub.Start(ctx, wg)

	// optional downstream MQTT forwarder
	if conf.Mqtt.Connection != "" {
		forwarder, err = mqtt.NewForwarder(conf.Mqtt, bridge)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create mqtt forwarder")
			os.Exit(-1)
		}
		forwarder.Start(ctx, wg)
	}

	// REST API
	api = papi.NewApi(conf.ControllerConfig, sim, ingest, bridge)
	api.AttachWs(hub.Handler)
	api.Start(ctx, wg)

	// start the scheduler
	tick := conf.SimulatorConfig.TickInterval
	if tick <= 0 {
		tick = 10
	}
	sim.Start(time.Duration(tick) * time.Second)

	sig = make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
		case <-ctx.Done():
		}
		sim.Stop()
		cancel()
	}()
	// give 500 ms grace period to flush all logs
	time.Sleep(500 * time.Millisecond)
	wg.Wait()
}

func decrypt(cipheredTextSting string) (string, error) {

	var (
		key          = []byte(seed)
		res          []byte
		iv           []byte
		cipheredText []byte
		err          error
		plaintText   string
	)

	key = crypto_util.GenerateKey(string(key))
	iv, err = hex.DecodeString(crypto_util.IV)
	if err != nil {
		return "", errors.Join(err, errors.New("Failed to decode the IV"))
	}

	cipheredText, err = hex.DecodeString(cipheredTextSting)
	if err != nil {
		return "", errors.Join(err, errors.New("Failed to decode the ciphered text"))
	}

	res, err = crypto_util.DecryptAES256CBC(cipheredText, key, iv)
	if err != nil {
		return "", errors.Join(err, errors.New("Failed to decrypt"))
	}
	plaintText = string(res)
	plaintText = strings.TrimRightFunc(plaintText, func(r rune) bool {
		return unicode.IsControl(r)
	})

	return plaintText, nil
}

func openConfigFile(s string) Config {
	if s == "" {
		s = "config.yaml"
	}

	f, err := os.Open(s)
	if err != nil {
		processError(errors.Join(err, errors.New("open config.yaml file")))
	}
	defer f.Close()

	var config Config
	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(&config)
	if err != nil {
		processError(err)
	}
	return config
}

func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}
