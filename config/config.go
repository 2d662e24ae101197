package config

import "time"

type Config struct {
	Log      Log
	Web      Web
	API      API
	Auth     Auth
	Cart     Cart
	Redis    Redis
	DB       DB
	Checkout Checkout
	Cors     Cors
}

type Log struct {
	Level string `conf:"default:info,help:debug|info|warn|error"`
}

type Web struct {
	Address         string        `conf:"default:127.0.0.1:4100"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:30s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

// API points at the course marketplace backend.
type API struct {
	BaseURL string        `conf:"default:http://localhost:5000"`
	Timeout time.Duration `conf:"default:15s"`
}

// Auth configures identity-provider token verification. With an empty
// Issuer tokens are decoded without verification, for local development.
type Auth struct {
	Issuer             string
	ClientID           string
	SkipSignatureCheck bool          `conf:"default:false"`
	DiscoveryTimeout   time.Duration `conf:"default:10s"`
	SessionLifetime    time.Duration `conf:"default:24h"`
}

type Cart struct {
	Backend   string        `conf:"default:file,help:file|redis|sql|memory"`
	Namespace string        `conf:"default:cartItems"`
	Dir       string        `conf:"default:.coursecache"`
	Pulse     time.Duration `conf:"default:600ms"`
}

type Redis struct {
	Addr     string `conf:"default:localhost:6379"`
	Password string `conf:"mask"`
	DB       int    `conf:"default:0"`
}

type DB struct {
	Driver string `conf:"default:sqlite3,help:sqlite3|postgres"`
	DSN    string `conf:"default:file:.coursecache/cart.db?_busy_timeout=5000,mask"`
}

// Checkout debounces purchase submissions per user.
type Checkout struct {
	Burst    int           `conf:"default:1"`
	Interval time.Duration `conf:"default:2s"`
	Expiry   time.Duration `conf:"default:10m"`
}

type Cors struct {
	Origin string
}
