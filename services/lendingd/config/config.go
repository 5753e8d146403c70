// Package config loads the lendingd daemon's TOML configuration: its
// listen address and TLS/auth material, the protocol-wide GlobalConfig
// seed, and the list of markets to register at startup. It follows the
// same Load/createDefault idiom the rest of the stack uses for its TOML
// configuration, generating and persisting a default file the first
// time the daemon is pointed at a path that does not yet exist.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"autara/interestrate"
	"autara/native/lending"
	afixed "autara/math"
	"autara/oracle"
)

// Config captures the runtime settings for the lending service daemon.
type Config struct {
	ListenAddress string       `toml:"listen_address"`
	TLS           TLSConfig    `toml:"tls"`
	Auth          AuthConfig   `toml:"auth"`
	Global        GlobalConfig `toml:"global"`
	Markets       []Market     `toml:"markets"`
}

// TLSConfig describes the TLS material for the gRPC server.
type TLSConfig struct {
	CertPath      string `toml:"cert"`
	KeyPath       string `toml:"key"`
	ClientCAPath  string `toml:"client_ca"`
	AllowInsecure bool   `toml:"allow_insecure"`
}

// AuthConfig lists the authenticators accepted by the service.
type AuthConfig struct {
	APITokens []string       `toml:"api_tokens"`
	MTLS      MTLSAuthConfig `toml:"mtls"`
}

// MTLSAuthConfig enumerates the allowed client certificate identities.
type MTLSAuthConfig struct {
	AllowedCommonNames []string `toml:"allowed_common_names"`
}

// GlobalConfig seeds the protocol-wide admin/fee policy the daemon
// boots native/lending.GlobalConfig with; every field mirrors
// lending.GlobalConfig except NominatedAdmin, which only ever exists as
// the result of a later SetNominatedAdmin call.
type GlobalConfig struct {
	Admin               string `toml:"admin"`
	FeeReceiver         string `toml:"fee_receiver"`
	ProtocolFeeShareBps uint16 `toml:"protocol_fee_share_bps"`
}

// Market bootstraps one lending market at daemon startup, carrying
// every input lending.CreateMarket needs plus the interest curve
// selection.
type Market struct {
	// MarketID identifies this market in the engine's registry; it has
	// no analogue in native/lending.Market itself, which carries no ID
	// of its own and is addressed purely by the key CoreEngine.RegisterMarket
	// is called with.
	MarketID                string       `toml:"market_id"`
	Index                   uint64       `toml:"index"`
	Curator                 string       `toml:"curator"`
	SupplyMint              string       `toml:"supply_mint"`
	CollateralMint          string       `toml:"collateral_mint"`
	SupplyMintDecimals      uint8        `toml:"supply_mint_decimals"`
	CollateralMintDecimals  uint8        `toml:"collateral_mint_decimals"`
	SupplyVault             string       `toml:"supply_vault"`
	CollateralVault         string       `toml:"collateral_vault"`
	SupplyOracleAccount     string       `toml:"supply_oracle_account"`
	CollateralOracleAccount string       `toml:"collateral_oracle_account"`
	SupplyOracle            OracleConfig `toml:"supply_oracle"`
	CollateralOracle        OracleConfig `toml:"collateral_oracle"`
	Curve                   CurveConfig  `toml:"curve"`
	MaxLTV                  string       `toml:"max_ltv"`
	UnhealthyLTV            string       `toml:"unhealthy_ltv"`
	LiquidationBonus        string       `toml:"liquidation_bonus"`
	MaxUtilisationRate      string       `toml:"max_utilisation_rate"`
	MaxSupplyAtoms          uint64       `toml:"max_supply_atoms"`
	LendingMarketFeeBps     uint16       `toml:"lending_market_fee_bps"`
	ProtocolFeeShareBps     uint16       `toml:"protocol_fee_share_bps"`
}

// OracleConfig mirrors oracle.ValidationConfig over TOML-friendly
// non-pointer fields; a zero MaxAgeSeconds/MinRelativeConfidence
// disables that bound, matching a nil pointer in the native type.
type OracleConfig struct {
	MaxAgeSeconds         uint64 `toml:"max_age_seconds"`
	MinRelativeConfidence string `toml:"min_relative_confidence"`
}

// CurveConfig selects one of the three interest-rate curves native/lending
// supports. Kind is "fixed", "polyline", or "adaptive"; the matching
// field below is required, the others are ignored.
type CurveConfig struct {
	Kind     string             `toml:"kind"`
	FixedAPR string             `toml:"fixed_apr"`
	Polyline []PolylinePointTOML `toml:"polyline"`
}

// PolylinePointTOML mirrors interestrate.PolylinePoint.
type PolylinePointTOML struct {
	UtilisationRateBps uint32 `toml:"utilisation_rate_bps"`
	BorrowRateBps      uint32 `toml:"borrow_rate_bps"`
}

// Load reads the TOML configuration from disk and validates the
// result, generating a default file at path if none exists yet.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := Config{ListenAddress: ":50053"}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// createDefault writes a minimal, insecure, loopback-only config
// suitable for local development and returns it loaded.
func createDefault(path string) (Config, error) {
	cfg := Config{
		ListenAddress: "127.0.0.1:50053",
		TLS:           TLSConfig{AllowInsecure: true},
		Auth:          AuthConfig{APITokens: []string{"dev-token"}},
		Global: GlobalConfig{
			Admin:               lending.PublicKey{}.String(),
			FeeReceiver:         lending.PublicKey{}.String(),
			ProtocolFeeShareBps: 1000,
		},
	}
	f, err := os.Create(path)
	if err != nil {
		return Config{}, fmt.Errorf("create default config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return Config{}, fmt.Errorf("write default config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) normalize() {
	if cfg == nil {
		return
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":50053"
	}
	cfg.TLS.normalize()
	cfg.Auth.normalize()
}

func (cfg *Config) validate() error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	if err := cfg.TLS.validate(); err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	if err := cfg.Auth.validate(cfg.TLS); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if _, err := cfg.Global.parse(); err != nil {
		return fmt.Errorf("global: %w", err)
	}
	for i, m := range cfg.Markets {
		if _, _, _, err := m.parse(); err != nil {
			return fmt.Errorf("markets[%d]: %w", i, err)
		}
	}
	return nil
}

func (cfg *TLSConfig) normalize() {
	if cfg == nil {
		return
	}
	cfg.CertPath = strings.TrimSpace(cfg.CertPath)
	cfg.KeyPath = strings.TrimSpace(cfg.KeyPath)
	cfg.ClientCAPath = strings.TrimSpace(cfg.ClientCAPath)
}

func (cfg TLSConfig) validate() error {
	hasCert := cfg.CertPath != ""
	hasKey := cfg.KeyPath != ""
	if hasCert != hasKey {
		return fmt.Errorf("cert and key must either both be provided or both be empty")
	}
	if !cfg.AllowInsecure && !hasCert {
		return fmt.Errorf("cert and key are required unless allow_insecure=true")
	}
	if cfg.ClientCAPath != "" && !hasCert {
		return fmt.Errorf("client_ca requires a server certificate and key")
	}
	return nil
}

// MTLSEnabled reports whether mutual TLS verification is configured.
func (cfg TLSConfig) MTLSEnabled() bool {
	return strings.TrimSpace(cfg.ClientCAPath) != ""
}

func (cfg *AuthConfig) normalize() {
	if cfg == nil {
		return
	}
	tokens := make([]string, 0, len(cfg.APITokens))
	for _, token := range cfg.APITokens {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	cfg.APITokens = tokens

	names := make([]string, 0, len(cfg.MTLS.AllowedCommonNames))
	for _, name := range cfg.MTLS.AllowedCommonNames {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	cfg.MTLS.AllowedCommonNames = names
}

func (cfg AuthConfig) validate(tls TLSConfig) error {
	hasTokens := len(cfg.APITokens) > 0
	hasMTLS := len(cfg.MTLS.AllowedCommonNames) > 0
	if !hasTokens && !hasMTLS {
		return fmt.Errorf("at least one api token or mTLS common name must be configured")
	}
	if hasMTLS && strings.TrimSpace(tls.ClientCAPath) == "" {
		return fmt.Errorf("mtls.allowed_common_names requires tls.client_ca to be configured")
	}
	return nil
}

// parse decodes g into a native/lending.GlobalConfig, applying its
// own defaults for a zero ProtocolFeeShareBps.
func (g GlobalConfig) parse() (lending.GlobalConfig, error) {
	admin, err := lending.ParsePublicKey(g.Admin)
	if err != nil {
		return lending.GlobalConfig{}, fmt.Errorf("admin: %w", err)
	}
	receiver, err := lending.ParsePublicKey(g.FeeReceiver)
	if err != nil {
		return lending.GlobalConfig{}, fmt.Errorf("fee_receiver: %w", err)
	}
	out := lending.GlobalConfig{Admin: admin, FeeReceiver: receiver, ProtocolFeeShareBps: g.ProtocolFeeShareBps}
	out.EnsureDefaults()
	return out, nil
}

// parse decodes an oracle config's relative-confidence bound, leaving
// it nil when blank (zero PodOption fields mean "no such bound").
func (o OracleConfig) parse() (oracle.ValidationConfig, error) {
	var cfg oracle.ValidationConfig
	if o.MaxAgeSeconds != 0 {
		age := o.MaxAgeSeconds
		cfg.MaxAgeSeconds = &age
	}
	if strings.TrimSpace(o.MinRelativeConfidence) != "" {
		conf, err := afixed.Parse(o.MinRelativeConfidence)
		if err != nil {
			return oracle.ValidationConfig{}, fmt.Errorf("min_relative_confidence: %w", err)
		}
		cfg.MinRelativeConfidence = &conf
	}
	return cfg, nil
}

// parse builds the interest-rate curve c describes.
func (c CurveConfig) parse() (interestrate.Curve, error) {
	switch strings.ToLower(strings.TrimSpace(c.Kind)) {
	case "", "fixed":
		apr, err := afixed.Parse(c.FixedAPR)
		if err != nil {
			return nil, fmt.Errorf("fixed_apr: %w", err)
		}
		return interestrate.NewFixedCurve(interestrate.FromAPR(apr)), nil
	case "polyline":
		points := make([]interestrate.PolylinePoint, len(c.Polyline))
		for i, p := range c.Polyline {
			points[i] = interestrate.PolylinePoint{UtilisationRateBps: p.UtilisationRateBps, BorrowRateBps: p.BorrowRateBps}
		}
		if len(points) == 0 {
			points = interestrate.DefaultPolylinePoints()
		}
		curve, err := interestrate.NewPolylineCurve(points)
		if err != nil {
			return nil, fmt.Errorf("polyline: %w", err)
		}
		return curve, nil
	case "adaptive":
		return interestrate.NewAdaptiveCurve(), nil
	default:
		return nil, fmt.Errorf("unknown curve kind %q", c.Kind)
	}
}

// parse decodes m into the arguments lending.CreateMarket needs: the
// ltv config, the curve, and the max utilisation rate, surfaced
// separately from the CreateMarket call itself so Load can validate a
// market without constructing it twice.
func (m Market) parse() (lending.LtvConfig, interestrate.Curve, afixed.IFixed, error) {
	maxLTV, err := afixed.Parse(m.MaxLTV)
	if err != nil {
		return lending.LtvConfig{}, nil, afixed.IFixed{}, fmt.Errorf("max_ltv: %w", err)
	}
	unhealthyLTV, err := afixed.Parse(m.UnhealthyLTV)
	if err != nil {
		return lending.LtvConfig{}, nil, afixed.IFixed{}, fmt.Errorf("unhealthy_ltv: %w", err)
	}
	bonus, err := afixed.Parse(m.LiquidationBonus)
	if err != nil {
		return lending.LtvConfig{}, nil, afixed.IFixed{}, fmt.Errorf("liquidation_bonus: %w", err)
	}
	maxUtilisation, err := afixed.Parse(m.MaxUtilisationRate)
	if err != nil {
		return lending.LtvConfig{}, nil, afixed.IFixed{}, fmt.Errorf("max_utilisation_rate: %w", err)
	}
	curve, err := m.Curve.parse()
	if err != nil {
		return lending.LtvConfig{}, nil, afixed.IFixed{}, fmt.Errorf("curve: %w", err)
	}
	ltv := lending.LtvConfig{MaxLTV: maxLTV, UnhealthyLTV: unhealthyLTV, LiquidationBonus: bonus}
	return ltv, curve, maxUtilisation, nil
}

// CreateMarket builds the native/lending.Market m describes, ready to
// hand to engine.CoreEngine.RegisterMarket.
func (m Market) CreateMarket() (lending.PublicKey, *lending.Market, error) {
	marketID, err := lending.ParsePublicKey(m.MarketID)
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("market_id: %w", err)
	}
	ltv, curve, maxUtilisation, err := m.parse()
	if err != nil {
		return lending.PublicKey{}, nil, err
	}
	curator, err := lending.ParsePublicKey(m.Curator)
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("curator: %w", err)
	}
	supplyMint, err := lending.ParsePublicKey(m.SupplyMint)
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("supply_mint: %w", err)
	}
	collateralMint, err := lending.ParsePublicKey(m.CollateralMint)
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("collateral_mint: %w", err)
	}
	supplyVault, err := lending.ParsePublicKey(m.SupplyVault)
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("supply_vault: %w", err)
	}
	collateralVault, err := lending.ParsePublicKey(m.CollateralVault)
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("collateral_vault: %w", err)
	}
	supplyOracleAccount, err := lending.ParsePublicKey(m.SupplyOracleAccount)
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("supply_oracle_account: %w", err)
	}
	collateralOracleAccount, err := lending.ParsePublicKey(m.CollateralOracleAccount)
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("collateral_oracle_account: %w", err)
	}
	supplyOracleConfig, err := m.SupplyOracle.parse()
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("supply_oracle: %w", err)
	}
	collateralOracleConfig, err := m.CollateralOracle.parse()
	if err != nil {
		return lending.PublicKey{}, nil, fmt.Errorf("collateral_oracle: %w", err)
	}

	market, err := lending.CreateMarket(
		m.Index,
		curator,
		supplyMint, collateralMint,
		m.SupplyMintDecimals, m.CollateralMintDecimals,
		supplyVault, collateralVault,
		supplyOracleAccount, collateralOracleAccount,
		supplyOracleConfig, collateralOracleConfig,
		curve,
		ltv,
		maxUtilisation,
		m.MaxSupplyAtoms,
		m.LendingMarketFeeBps,
		m.ProtocolFeeShareBps,
	)
	if err != nil {
		return lending.PublicKey{}, nil, err
	}
	return marketID, &market, nil
}

// GlobalConfig decodes the daemon's protocol-wide seed.
func (cfg Config) GlobalConfig() (lending.GlobalConfig, error) {
	return cfg.Global.parse()
}
