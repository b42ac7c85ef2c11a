package config

import (
	"time"
)

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	Stream       string        `envconfig:"STREAM" default:"payments:events"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers     []string `envconfig:"BROKERS" default:"localhost:9092"`
	TopicPrefix string   `envconfig:"TOPIC_PREFIX" default:"africapayments"`
}

type NATS struct {
	URL           string `envconfig:"URL" default:"nats://127.0.0.1:4222"`
	SubjectPrefix string `envconfig:"SUBJECT_PREFIX" default:"africapayments"`
}

// EventBus selects where lifecycle events are forwarded in addition to the
// in-process listeners. Drivers is a comma separated list of redis, kafka
// and nats.
type EventBus struct {
	Drivers []string `envconfig:"DRIVERS"`
	Redis   *Redis   `envconfig:"REDIS"`
	Kafka   *Kafka   `envconfig:"KAFKA"`
	NATS    *NATS    `envconfig:"NATS"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Idempotency configures replay of POST responses sent with an
// Idempotency-Key header. Store is memory or redis.
type Idempotency struct {
	Enabled  bool          `envconfig:"ENABLED" default:"true"`
	Store    string        `envconfig:"STORE" default:"memory"`
	TTL      time.Duration `envconfig:"TTL" default:"24h"`
	RedisURL string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
}

type Paydunya struct {
	Name        string        `envconfig:"NAME" default:"paydunya"`
	Mode        string        `envconfig:"MODE" default:"test"`
	MasterKey   string        `envconfig:"MASTER_KEY"`
	PrivateKey  string        `envconfig:"PRIVATE_KEY"`
	PublicKey   string        `envconfig:"PUBLIC_KEY"`
	Token       string        `envconfig:"TOKEN"`
	StoreName   string        `envconfig:"STORE_NAME" default:"Africa Payments"`
	BaseURL     string        `envconfig:"BASE_URL"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

type Taarih struct {
	Name        string `envconfig:"NAME" default:"taarih"`
	Mode        string `envconfig:"MODE" default:"test"`
	PhoneNumber string `envconfig:"PHONE_NUMBER"`
	CallingCode string `envconfig:"CALLING_CODE" default:"+221"`
	Password    string `envconfig:"PASSWORD"`
	VisitorID   string `envconfig:"VISITOR_ID"`
	// PreAuthBankAccountID enables the pre-authorization step when set.
	PreAuthBankAccountID string        `envconfig:"PRE_AUTH_BANK_ACCOUNT_ID"`
	BaseURL              string        `envconfig:"BASE_URL"`
	HTTPTimeout          time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

//revive:disable
type Stripe struct {
	Name          string `envconfig:"NAME" default:"stripe"`
	ApiKey        string `envconfig:"API_KEY"`
	SigningSecret string `envconfig:"SIGNING_SECRET"`
	SuccessURL    string `envconfig:"SUCCESS_URL" default:"http://localhost:3000/payment/success"`
	CancelURL     string `envconfig:"CANCEL_URL" default:"http://localhost:3000/payment/cancel"`
	BackendURL    string `envconfig:"BACKEND_URL"`
}

//revive:enable

type Bogus struct {
	Name          string `envconfig:"NAME" default:"bogus"`
	InstantEvents bool   `envconfig:"INSTANT_EVENTS" default:"true"`
}

type Breaker struct {
	Enabled      bool          `envconfig:"ENABLED" default:"true"`
	MaxRequests  uint32        `envconfig:"MAX_REQUESTS" default:"1"`
	Interval     time.Duration `envconfig:"INTERVAL" default:"1m"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"30s"`
	FailureRatio float64       `envconfig:"FAILURE_RATIO" default:"0.6"`
	MinRequests  uint32        `envconfig:"MIN_REQUESTS" default:"5"`
}

// PaymentProviders lists the gateway configuration. Order is the fallback
// priority; names not listed are not constructed.
type PaymentProviders struct {
	Order    []string  `envconfig:"ORDER" default:"paydunya,taarih,stripe"`
	Paydunya *Paydunya `envconfig:"PAYDUNYA"`
	Taarih   *Taarih   `envconfig:"TAARIH"`
	Stripe   *Stripe   `envconfig:"STRIPE"`
	Bogus    *Bogus    `envconfig:"BOGUS"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[africapayments]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
	// PollTimeout bounds status checks and webhooks that poll a gateway.
	PollTimeout time.Duration `envconfig:"POLL_TIMEOUT" default:"2m"`
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For
	// header is honoured. Empty trusts no proxy.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
}

type App struct {
	Env              string            `envconfig:"APP_ENV" default:"development"`
	Server           *Server           `envconfig:"SERVER"`
	Log              *Log              `envconfig:"LOG"`
	RateLimit        *RateLimit        `envconfig:"RATE_LIMIT"`
	EventBus         *EventBus         `envconfig:"EVENT_BUS"`
	Idempotency      *Idempotency      `envconfig:"IDEMPOTENCY"`
	Breaker          *Breaker          `envconfig:"BREAKER"`
	PaymentProviders *PaymentProviders `envconfig:"PAYMENT_PROVIDER"`
}
