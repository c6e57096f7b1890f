package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`

	Bkash    Bkash           `envPrefix:"BKASH_"`
	Redirect PaymentRedirect `envPrefix:"PAYMENT_"`
}

type Bkash struct {
	BaseURL   string `env:"BASE_URL"`
	AppKey    string `env:"APP_KEY"`
	AppSecret string `env:"APP_SECRET"`
	Username  string `env:"USERNAME"`
	Password  string `env:"PASSWORD"`
}

// PaymentRedirect holds the client pages the callback handler sends the
// end user to after bKash returns them to us.
type PaymentRedirect struct {
	SuccessURL string `env:"SUCCESS_URL"`
	FailureURL string `env:"FAILURE_URL"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
