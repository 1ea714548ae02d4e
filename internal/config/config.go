package config

import (
	"flag"
	"time"
)

const (
	defaultHTTPAddr  = ":8001"
	defaultUDPPort   = ":12345"
	defaultEnableUDP = false

	defaultDevice       = "/dev/ttyACM0"
	defaultDeviceTag    = "qf8mzr"
	defaultEnableSerial = false
	defaultBaudRate     = 115200

	defaultEnableMQTT        = false
	defaultBroker            = "tcp://raspberrypi.local:1883"
	defaultClientID          = "bmx280-decoder"
	defaultKeepAliveDuration = 2 * time.Second
	defaultPingTimeout       = 1 * time.Second
	defaultUsername          = ""
	defaultPassword          = ""
	defaultTopic             = "sensors/bmx280"

	defaultEnableI2C   = false
	defaultI2CBus      = "/dev/i2c-1"
	defaultI2CAddress  = 0x76
	defaultI2CInterval = 5 * time.Second

	defaultMetricsPushURL      = ""
	defaultMetricsPushInterval = 5 * time.Second

	defaultClearInterval = 24 * time.Hour
)

type Config struct {
	ShowVersion bool
	Debug       bool

	HTTPServer HTTPServer
	UDPServer  UDPServer
	Serial     Serial
	MQTT       MQTT
	I2C        I2C
	Metrics    Metrics
	Dataset    Dataset
}

type HTTPServer struct {
	Addr string
}

type UDPServer struct {
	Enable bool
	Port   string
}

type Serial struct {
	Enable   bool
	PortName string
	BaudRate int
	Tag      string
}

type MQTT struct {
	Enable            bool
	KeepAliveDuration time.Duration
	Broker            string
	ClientID          string
	Username          string
	Password          string
	PingTimeout       time.Duration
	Topic             string
}

type I2C struct {
	Enable   bool
	Bus      string
	Address  uint
	Interval time.Duration
}

type Metrics struct {
	PushURL      string
	PushInterval time.Duration
}

type Dataset struct {
	ClearInterval time.Duration
}

func register(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.ShowVersion, "app-version", false, "show version information")
	fs.BoolVar(&cfg.Debug, "app-debug", false, "enable debug mode")

	fs.StringVar(&cfg.HTTPServer.Addr, "http-addr", defaultHTTPAddr, "HTTP server address")

	fs.BoolVar(&cfg.UDPServer.Enable, "udp-enable", defaultEnableUDP, "enable UDP frame server")
	fs.StringVar(&cfg.UDPServer.Port, "udp-port", defaultUDPPort, "UDP server port")

	fs.BoolVar(&cfg.Serial.Enable, "serial-enable", defaultEnableSerial, "enable serial client")
	fs.StringVar(&cfg.Serial.PortName, "serial-port", defaultDevice, "serial device path (e.g., /dev/ttyUSB0)")
	fs.IntVar(&cfg.Serial.BaudRate, "serial-baud", defaultBaudRate, "serial baud rate")
	fs.StringVar(&cfg.Serial.Tag, "serial-tag", defaultDeviceTag, "device tag identifier")

	fs.BoolVar(&cfg.MQTT.Enable, "mqtt-enable", defaultEnableMQTT, "enable MQTT client")
	fs.StringVar(&cfg.MQTT.Broker, "mqtt-broker", defaultBroker, "MQTT broker URI")
	fs.StringVar(&cfg.MQTT.ClientID, "mqtt-client-id", defaultClientID, "MQTT client id")
	fs.DurationVar(&cfg.MQTT.KeepAliveDuration, "mqtt-keep-alive", defaultKeepAliveDuration, "MQTT keep alive duration")
	fs.DurationVar(&cfg.MQTT.PingTimeout, "mqtt-ping-timeout", defaultPingTimeout, "MQTT ping timeout")
	fs.StringVar(&cfg.MQTT.Username, "mqtt-username", defaultUsername, "MQTT username")
	fs.StringVar(&cfg.MQTT.Password, "mqtt-password", defaultPassword, "MQTT password")
	fs.StringVar(&cfg.MQTT.Topic, "mqtt-topic", defaultTopic, "MQTT topic carrying binary frames")

	fs.BoolVar(&cfg.I2C.Enable, "i2c-enable", defaultEnableI2C, "poll a locally attached sensor")
	fs.StringVar(&cfg.I2C.Bus, "i2c-bus", defaultI2CBus, "I2C bus device")
	fs.UintVar(&cfg.I2C.Address, "i2c-addr", defaultI2CAddress, "sensor I2C address (0x76 or 0x77)")
	fs.DurationVar(&cfg.I2C.Interval, "i2c-interval", defaultI2CInterval, "sensor poll interval")

	fs.StringVar(&cfg.Metrics.PushURL, "metrics-push", defaultMetricsPushURL,
		"push metrics to this URL, e.g. http://127.0.0.1:8428/api/v1/import/prometheus")
	fs.DurationVar(&cfg.Metrics.PushInterval, "metrics-push-interval", defaultMetricsPushInterval, "metrics push interval")

	fs.DurationVar(&cfg.Dataset.ClearInterval, "dataset-clear-interval", defaultClearInterval,
		"how often readings older than a week are dropped")
}

// Parse reads the configuration from args, which excludes the program name.
func Parse(name string, args []string) (Config, error) {
	cfg := Config{}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	register(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return cfg, err //nolint:wrapcheck
	}

	return cfg, nil
}

func FromFlags() Config {
	cfg := Config{}

	register(flag.CommandLine, &cfg)
	flag.Parse()

	return cfg
}
