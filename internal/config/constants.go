package config

import "time"

// Application constants
const (
	// Application Info
	AppName        = "shipdash"
	AppTitle       = "Shipbuilding Big Three: Share Price Analysis and Prediction"
	AppDescription = "Correlation between the three shipbuilders' share prices, and the model's 30-day price outlook."
	AppVersion     = "1.0.0"

	// Environment
	EnvPrefix = "SHIPDASH"
	EnvFile   = ".env"

	// Data
	DefaultDataFile  = "data/ship_bigdata.csv"
	DefaultAlignment = "listwise"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultExportTimeout   = 60 * time.Second
)

// Dashboard tabs
const (
	TabCorrelation = "Share Price Correlation"
	TabPrediction  = "Price Prediction"
)
