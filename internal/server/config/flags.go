package config

import (
	"flag"
	"os"
	"time"

	"storefront/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line
// flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-r string   Redis address (host:port)
//	-q string   AMQP URL
//	-x string   events exchange name
//	-n string   inventory queue name
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-l int      product cache TTL, seconds
//	-w int      bcrypt work factor
//	-p int      dependency probe timeout, seconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-q", "-x", "-n", "-s", "-t", "-l", "-w", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.AMQPUrl, "q", config.AMQPUrl, "AMQP URL")
	fs.StringVar(&config.ExchangeName, "x", config.ExchangeName, "events exchange name")
	fs.StringVar(&config.QueueName, "n", config.QueueName, "inventory queue name")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	cacheTTL := fs.Int("l", int(config.CacheTTL.Seconds()), "product cache TTL (in seconds)")
	probeTimeout := fs.Int("p", int(config.ProbeTimeout.Seconds()), "dependency probe timeout (in seconds)")

	fs.IntVar(&config.BcryptCost, "w", config.BcryptCost, "bcrypt work factor")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.CacheTTL = time.Duration(*cacheTTL) * time.Second
	config.ProbeTimeout = time.Duration(*probeTimeout) * time.Second
}
