package models

// DealSource is an upstream feed the feeder polls.
type DealSource struct {
	Source   string `db:"source" yaml:"source" mapstructure:"source"`
	Category string `db:"category" yaml:"category" mapstructure:"category"`
	URL      string `db:"url" yaml:"url" mapstructure:"url"`
	Country  string `db:"country" yaml:"country" mapstructure:"country"`
	Region   string `db:"region" yaml:"region" mapstructure:"region"`
}
