package config

import "testing"

func validConfig() *Config {
	return &Config{
		ListenPort:      8080,
		PlayerMin:       2,
		PlayerCap:       20,
		VoteRateToStart: 0.5,
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	c := validConfig()
	c.ListenPort = 70000
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for an out-of-range listen port")
	}
}

func TestValidateRejectsPlayerCapBelowMin(t *testing.T) {
	c := validConfig()
	c.PlayerMin = 10
	c.PlayerCap = 4
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error when PlayerCap < PlayerMin")
	}
}

func TestValidateRejectsVoteRateOutOfUnitRange(t *testing.T) {
	c := validConfig()
	c.VoteRateToStart = 1.5
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error for a vote rate above 1")
	}
}

func TestMySQLDSNFormatsStandardDSN(t *testing.T) {
	c := &Config{MySQLUser: "royale", MySQLPass: "hunter2", MySQLHost: "db", MySQLPort: 3306, MySQLDB: "royaleserver"}
	want := "royale:hunter2@tcp(db:3306)/royaleserver?parseTime=true"
	if got := c.MySQLDSN(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
