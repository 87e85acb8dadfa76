package conversation

import "time"

// Config holds follow-up limits and LLM call settings.
type Config struct {
	MaxQuestions    int           `env:"FOLLOWUP_MAX_QUESTIONS" envDefault:"5"`
	LLMTimeout      time.Duration `env:"FOLLOWUP_LLM_TIMEOUT" envDefault:"60s"`
	CostPer1KTokens float64       `env:"FOLLOWUP_COST_PER_1K_TOKENS" envDefault:"0.01"`
	HistoryLimit    int           `env:"FOLLOWUP_HISTORY_LIMIT" envDefault:"50"`
	Model           string        `env:"FOLLOWUP_MODEL"`
	MaxTokens       int           `env:"FOLLOWUP_MAX_TOKENS" envDefault:"1000"`
	Temperature     float64       `env:"FOLLOWUP_TEMPERATURE" envDefault:"0.7"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxQuestions:    5,
		LLMTimeout:      60 * time.Second,
		CostPer1KTokens: 0.01,
		HistoryLimit:    50,
		MaxTokens:       1000,
		Temperature:     0.7,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = d.MaxQuestions
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = d.LLMTimeout
	}
	if c.CostPer1KTokens < 0 {
		c.CostPer1KTokens = 0
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	return c
}
