// Package contract loads contract terms from HCL files.
package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"usage-pricing/core/types"
	"usage-pricing/internal/errors"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "contract", LabelNames: []string{"id"}},
	},
}

var contractSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
		{Name: "default_rate"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "service_tier", LabelNames: []string{"service"}},
		{Type: "pricing_tier", LabelNames: []string{"service"}},
	},
}

var serviceTierSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "monthly_allowance", Required: true},
		{Name: "overage_rate", Required: true},
		{Name: "base_rate"},
		{Name: "overage_minimum"},
		{Name: "overage_maximum"},
	},
}

var pricingTierSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
		{Name: "min_usage", Required: true},
		{Name: "max_usage"},
		{Name: "rate", Required: true},
	},
}

// Loader parses contract files. Every parse starts from a fresh
// hclparse.Parser because the parser caches files by name.
type Loader struct{}

// NewLoader creates a new loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadPath loads every contract in path. A directory is scanned for *.hcl
// files in name order.
func (l *Loader) LoadPath(path string) ([]types.ContractTerms, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "cannot read contracts from %s", path)
	}
	if !info.IsDir() {
		return l.LoadFile(path)
	}

	files, err := filepath.Glob(filepath.Join(path, "*.hcl"))
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "invalid contract directory", err)
	}
	sort.Strings(files)

	var all []types.ContractTerms
	seen := make(map[string]string)
	for _, file := range files {
		terms, err := l.LoadFile(file)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			if prev, dup := seen[t.ID]; dup {
				return nil, errors.Newf(errors.TypeParsing, "contract %q defined in both %s and %s", t.ID, prev, file)
			}
			seen[t.ID] = file
		}
		all = append(all, terms...)
	}
	return all, nil
}

// LoadFile loads the contracts declared in one file
func (l *Loader) LoadFile(file string) ([]types.ContractTerms, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read %s", file)
	}
	return l.Parse(src, file)
}

// Parse decodes contracts from HCL source. filename is used in diagnostics.
func (l *Loader) Parse(src []byte, filename string) ([]types.ContractTerms, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}

	var contracts []types.ContractTerms
	seen := make(map[string]bool)
	for _, block := range content.Blocks {
		id := block.Labels[0]
		if seen[id] {
			return nil, rangeError(block.DefRange, "duplicate contract %q", id)
		}
		seen[id] = true

		terms, err := decodeContract(id, block.Body)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, terms)
	}
	return contracts, nil
}

func decodeContract(id string, body hcl.Body) (types.ContractTerms, error) {
	terms := types.ContractTerms{ID: id}

	content, diags := body.Content(contractSchema)
	if diags.HasErrors() {
		return terms, diagError(diags)
	}

	if attr, ok := content.Attributes["name"]; ok {
		name, err := stringAttr(attr)
		if err != nil {
			return terms, err
		}
		terms.Name = name
	}
	if attr, ok := content.Attributes["default_rate"]; ok {
		rate, err := decimalAttr(attr)
		if err != nil {
			return terms, err
		}
		terms.DefaultRate = &rate
	}

	usageIndex := make(map[types.ServiceType]int)
	for _, block := range content.Blocks {
		service := types.ServiceType(block.Labels[0])

		switch block.Type {
		case "service_tier":
			if _, dup := terms.ServiceTier(service); dup {
				return terms, rangeError(block.DefRange, "duplicate service_tier %q in contract %q", service, id)
			}
			tier, err := decodeServiceTier(service, block.Body)
			if err != nil {
				return terms, err
			}
			terms.ServiceTiers = append(terms.ServiceTiers, tier)

		case "pricing_tier":
			tier, err := decodePricingTier(block.Body)
			if err != nil {
				return terms, err
			}
			i, ok := usageIndex[service]
			if !ok {
				i = len(terms.UsageTiers)
				usageIndex[service] = i
				terms.UsageTiers = append(terms.UsageTiers, types.ServiceUsageTiers{ServiceType: service})
			}
			terms.UsageTiers[i].Tiers = append(terms.UsageTiers[i].Tiers, tier)
		}
	}

	return terms, nil
}

func decodeServiceTier(service types.ServiceType, body hcl.Body) (types.ServiceTierConfig, error) {
	tier := types.ServiceTierConfig{ServiceType: service}

	content, diags := body.Content(serviceTierSchema)
	if diags.HasErrors() {
		return tier, diagError(diags)
	}

	var err error
	if tier.MonthlyAllowance, err = decimalAttr(content.Attributes["monthly_allowance"]); err != nil {
		return tier, err
	}
	if tier.OverageRate, err = decimalAttr(content.Attributes["overage_rate"]); err != nil {
		return tier, err
	}
	tier.BaseRate = decimal.Zero
	if attr, ok := content.Attributes["base_rate"]; ok {
		if tier.BaseRate, err = decimalAttr(attr); err != nil {
			return tier, err
		}
	}
	if tier.OverageMinimum, err = optionalDecimal(content.Attributes["overage_minimum"]); err != nil {
		return tier, err
	}
	if tier.OverageMaximum, err = optionalDecimal(content.Attributes["overage_maximum"]); err != nil {
		return tier, err
	}
	return tier, nil
}

func decodePricingTier(body hcl.Body) (types.PricingTier, error) {
	var tier types.PricingTier

	content, diags := body.Content(pricingTierSchema)
	if diags.HasErrors() {
		return tier, diagError(diags)
	}

	var err error
	if attr, ok := content.Attributes["name"]; ok {
		if tier.Name, err = stringAttr(attr); err != nil {
			return tier, err
		}
	}
	if tier.MinUsage, err = decimalAttr(content.Attributes["min_usage"]); err != nil {
		return tier, err
	}
	if tier.MaxUsage, err = optionalDecimal(content.Attributes["max_usage"]); err != nil {
		return tier, err
	}
	if tier.Rate, err = decimalAttr(content.Attributes["rate"]); err != nil {
		return tier, err
	}
	return tier, nil
}

// optionalDecimal returns nil for a missing or null attribute
func optionalDecimal(attr *hcl.Attribute) (*decimal.Decimal, error) {
	if attr == nil {
		return nil, nil
	}
	val, err := attrValue(attr)
	if err != nil {
		return nil, err
	}
	if val.IsNull() {
		return nil, nil
	}
	d, err := ctyDecimal(attr, val)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalAttr(attr *hcl.Attribute) (decimal.Decimal, error) {
	val, err := attrValue(attr)
	if err != nil {
		return decimal.Zero, err
	}
	if val.IsNull() {
		return decimal.Zero, rangeError(attr.Range, "%s must not be null", attr.Name)
	}
	return ctyDecimal(attr, val)
}

// ctyDecimal converts numbers and numeric strings exactly
func ctyDecimal(attr *hcl.Attribute, val cty.Value) (decimal.Decimal, error) {
	num, err := convert.Convert(val, cty.Number)
	if err != nil {
		return decimal.Zero, rangeError(attr.Range, "%s must be a number: %v", attr.Name, err)
	}
	d, err := decimal.NewFromString(num.AsBigFloat().Text('f', -1))
	if err != nil {
		return decimal.Zero, rangeError(attr.Range, "%s is not a finite number", attr.Name)
	}
	return d, nil
}

func stringAttr(attr *hcl.Attribute) (string, error) {
	val, err := attrValue(attr)
	if err != nil {
		return "", err
	}
	if val.IsNull() {
		return "", nil
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", rangeError(attr.Range, "%s must be a string: %v", attr.Name, err)
	}
	return str.AsString(), nil
}

// attrValue evaluates a literal attribute; contract files have no variables
func attrValue(attr *hcl.Attribute) (cty.Value, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diagError(diags)
	}
	if !val.IsWhollyKnown() {
		return cty.NilVal, rangeError(attr.Range, "%s must be a known value", attr.Name)
	}
	return val, nil
}

func diagError(diags hcl.Diagnostics) error {
	var msgs []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		msg := diag.Summary
		if diag.Detail != "" {
			msg += ": " + diag.Detail
		}
		if diag.Subject != nil {
			msg = fmt.Sprintf("%s:%d: %s", diag.Subject.Filename, diag.Subject.Start.Line, msg)
		}
		msgs = append(msgs, msg)
	}
	return errors.Parsing("invalid contract file", fmt.Errorf("%s", strings.Join(msgs, "; ")))
}

func rangeError(rng hcl.Range, format string, args ...any) error {
	return errors.Newf(errors.TypeParsing, "%s:%d: %s", rng.Filename, rng.Start.Line, fmt.Sprintf(format, args...))
}
