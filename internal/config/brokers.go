package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// Canonical field names for trade-book columns.
const (
	FieldDate     = "date"
	FieldSymbol   = "symbol"
	FieldAction   = "action"
	FieldQuantity = "quantity"
	FieldPrice    = "price"
	FieldAmount   = "amount"
	FieldFees     = "fees"
	FieldExchange = "exchange"
	FieldCurrency = "currency"
)

// Canonical field names for capital-gains columns.
const (
	FieldISIN          = "isin"
	FieldBuyDate       = "buy_date"
	FieldSellDate      = "sell_date"
	FieldBuyPrice      = "buy_price"
	FieldSellPrice     = "sell_price"
	FieldCostBasis     = "cost_basis"
	FieldProceeds      = "proceeds"
	FieldGainLoss      = "gain_loss"
	FieldHoldingPeriod = "holding_period"
)

// TradeFields and GainFields are the canonical schemas every broker mapping
// must cover, either with a source column or an explicit not-provided entry.
var (
	TradeFields = []string{
		FieldDate, FieldSymbol, FieldAction, FieldQuantity, FieldPrice,
		FieldAmount, FieldFees, FieldExchange, FieldCurrency,
	}
	GainFields = []string{
		FieldSymbol, FieldISIN, FieldQuantity, FieldBuyDate, FieldSellDate,
		FieldBuyPrice, FieldSellPrice, FieldCostBasis, FieldProceeds,
		FieldGainLoss, FieldHoldingPeriod,
	}
)

// BrokerMapping maps one broker's source column names onto canonical fields.
// Keys are source column names compared case- and whitespace-insensitively;
// values are canonical field names. Several source columns may map to the
// same canonical field (fee columns are summed by the normalizer).
type BrokerMapping struct {
	Name string `yaml:"name" validate:"required"`
	// DateConvention overrides the global ambiguous-date default for this
	// broker: "dmy" or "mdy".
	DateConvention string            `yaml:"date_convention" validate:"omitempty,oneof=dmy mdy"`
	Trade          map[string]string `yaml:"trade" validate:"required"`
	Gains          map[string]string `yaml:"gains" validate:"required"`
	// NotProvided lists canonical fields this broker's exports never carry.
	NotProvided []string `yaml:"not_provided"`
}

// brokerFile is the YAML shape of an external broker mapping file.
type brokerFile struct {
	Brokers []BrokerMapping `yaml:"brokers"`
}

// BrokerMappings is the loaded, validated table of per-broker column
// mappings. It is read-only after load and safe for concurrent use.
type BrokerMappings struct {
	byName map[string]BrokerMapping
	def    *BrokerMapping
}

// Resolve returns the mapping for a broker, falling back to the declared
// default entry when the broker has no entry of its own. The second return
// is false when the broker is unknown and no default is declared; callers
// must reject the file rather than guess a mapping.
func (m *BrokerMappings) Resolve(broker string) (BrokerMapping, bool) {
	if bm, ok := m.byName[normalizeBrokerKey(broker)]; ok {
		return bm, true
	}
	if m.def != nil {
		return *m.def, true
	}
	return BrokerMapping{}, false
}

// CanonicalField resolves a source column name against a kind-specific
// mapping, case- and whitespace-insensitively.
func (bm BrokerMapping) CanonicalField(table map[string]string, sourceColumn string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(sourceColumn))
	field, ok := table[key]
	return field, ok
}

// LoadBrokerMappings loads broker mapping tables. With an empty path the
// built-in defaults are used; otherwise the YAML file extends the defaults,
// overriding entries by broker name. Every mapping is validated before use.
func LoadBrokerMappings(path string) (*BrokerMappings, error) {
	mappings := defaultBrokerMappings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read broker mapping file: %w", err)
		}
		var bf brokerFile
		if err := yaml.Unmarshal(data, &bf); err != nil {
			return nil, fmt.Errorf("failed to parse broker mapping file: %w", err)
		}
		mappings = append(mappings, bf.Brokers...)
	}

	validate := validator.New()
	table := &BrokerMappings{byName: make(map[string]BrokerMapping, len(mappings))}

	for _, bm := range mappings {
		if err := validate.Struct(bm); err != nil {
			return nil, fmt.Errorf("invalid broker mapping %q: %w", bm.Name, err)
		}
		bm.Trade = lowerKeys(bm.Trade)
		bm.Gains = lowerKeys(bm.Gains)
		if err := checkCoverage(bm); err != nil {
			return nil, err
		}
		if normalizeBrokerKey(bm.Name) == "default" {
			def := bm
			table.def = &def
			continue
		}
		table.byName[normalizeBrokerKey(bm.Name)] = bm
	}

	return table, nil
}

// checkCoverage verifies every canonical field is either mapped from some
// source column or explicitly declared not provided.
func checkCoverage(bm BrokerMapping) error {
	notProvided := make(map[string]bool, len(bm.NotProvided))
	for _, f := range bm.NotProvided {
		notProvided[f] = true
	}

	covered := func(table map[string]string, field string) bool {
		for _, canonical := range table {
			if canonical == field {
				return true
			}
		}
		return notProvided[field]
	}

	for _, field := range TradeFields {
		if !covered(bm.Trade, field) {
			return fmt.Errorf("broker mapping %q: trade field %q has no source column and is not declared not-provided", bm.Name, field)
		}
	}
	for _, field := range GainFields {
		if !covered(bm.Gains, field) {
			return fmt.Errorf("broker mapping %q: gains field %q has no source column and is not declared not-provided", bm.Name, field)
		}
	}
	return nil
}

func lowerKeys(table map[string]string) map[string]string {
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func normalizeBrokerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// defaultBrokerMappings returns the built-in table covering the generic
// column names the supported brokers export. The "default" entry handles
// account-derived pseudo-brokers and any broker without a dedicated entry.
func defaultBrokerMappings() []BrokerMapping {
	genericTrade := map[string]string{
		"date":          FieldDate,
		"trade date":    FieldDate,
		"stock":         FieldSymbol,
		"symbol":        FieldSymbol,
		"stock symbol":  FieldSymbol,
		"action":        FieldAction,
		"type":          FieldAction,
		"qty":           FieldQuantity,
		"quantity":      FieldQuantity,
		"price":         FieldPrice,
		"trade value":   FieldAmount,
		"tradevalue":    FieldAmount,
		"amount":        FieldAmount,
		"charges":       FieldFees,
		"total charges": FieldFees,
		"brokerage":     FieldFees,
		"exchange":      FieldExchange,
		"currency":      FieldCurrency,
	}
	genericGains := map[string]string{
		"stock symbol":              FieldSymbol,
		"symbol":                    FieldSymbol,
		"stock":                     FieldSymbol,
		"isin":                      FieldISIN,
		"qty":                       FieldQuantity,
		"quantity":                  FieldQuantity,
		"purchase date":             FieldBuyDate,
		"buy date":                  FieldBuyDate,
		"sale date":                 FieldSellDate,
		"sell date":                 FieldSellDate,
		"purchase rate considered":  FieldBuyPrice,
		"purchase rate":             FieldBuyPrice,
		"sale rate":                 FieldSellPrice,
		"purchase value":            FieldCostBasis,
		"sale value":                FieldProceeds,
		"profit/loss":               FieldGainLoss,
		"profit/loss(-)":            FieldGainLoss,
		"st/lt":                     FieldHoldingPeriod,
		"holding period":            FieldHoldingPeriod,
	}

	def := BrokerMapping{
		Name:  "default",
		Trade: genericTrade,
		Gains: genericGains,
	}

	named := func(name, convention string) BrokerMapping {
		return BrokerMapping{
			Name:           name,
			DateConvention: convention,
			Trade:          genericTrade,
			Gains:          genericGains,
		}
	}

	return []BrokerMapping{
		def,
		named("Zerodha", "dmy"),
		named("Groww", "dmy"),
		named("HDFC Bank", "dmy"),
		named("ICICI Direct", "dmy"),
		named("Charles Schwab", "mdy"),
		named("Fidelity", "mdy"),
	}
}
