package field

// Rule names a validation rule a field can activate.
type Rule string

// Rules, in the order they are applied.
const (
	RuleRequired          Rule = "required"
	RuleBetween           Rule = "between"
	RuleOptions           Rule = "options"
	RuleIsBoolean         Rule = "isBoolean"
	RuleIsString          Rule = "isString"
	RuleIsNumber          Rule = "isNumber"
	RuleIsArray           Rule = "isArray"
	RuleIsObject          Rule = "isObject"
	RuleIsTimestamp       Rule = "isTimestamp"
	RuleIsUUID            Rule = "isUuid"
	RuleIsUUIDArray       Rule = "isUuidArray"
	RuleIsItemFilterArray Rule = "isItemFilterArray"
)

var rules = []Rule{
	RuleRequired, RuleBetween, RuleOptions, RuleIsBoolean, RuleIsString,
	RuleIsNumber, RuleIsArray, RuleIsObject, RuleIsTimestamp, RuleIsUUID,
	RuleIsUUIDArray, RuleIsItemFilterArray,
}

// AllRules returns every rule in application order.
func AllRules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// IsKnown reports whether r is a known rule.
func (r Rule) IsKnown() bool {
	for _, k := range rules {
		if k == r {
			return true
		}
	}
	return false
}

// Between bounds a value, a string length, or an array length. A zero
// bound is no bound.
type Between struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Validation is the sparse set of rules a field activates. Boolean rules
// are active when true; Between is active when set.
type Validation struct {
	Required          bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Between           *Between `json:"between,omitempty" yaml:"between,omitempty"`
	Options           bool     `json:"options,omitempty" yaml:"options,omitempty"`
	IsBoolean         bool     `json:"isBoolean,omitempty" yaml:"isBoolean,omitempty"`
	IsString          bool     `json:"isString,omitempty" yaml:"isString,omitempty"`
	IsNumber          bool     `json:"isNumber,omitempty" yaml:"isNumber,omitempty"`
	IsArray           bool     `json:"isArray,omitempty" yaml:"isArray,omitempty"`
	IsObject          bool     `json:"isObject,omitempty" yaml:"isObject,omitempty"`
	IsTimestamp       bool     `json:"isTimestamp,omitempty" yaml:"isTimestamp,omitempty"`
	IsUUID            bool     `json:"isUuid,omitempty" yaml:"isUuid,omitempty"`
	IsUUIDArray       bool     `json:"isUuidArray,omitempty" yaml:"isUuidArray,omitempty"`
	IsItemFilterArray bool     `json:"isItemFilterArray,omitempty" yaml:"isItemFilterArray,omitempty"`
}

// Rules returns the active rules in application order.
func (v Validation) Rules() []Rule {
	active := map[Rule]bool{
		RuleRequired:          v.Required,
		RuleBetween:           v.Between != nil,
		RuleOptions:           v.Options,
		RuleIsBoolean:         v.IsBoolean,
		RuleIsString:          v.IsString,
		RuleIsNumber:          v.IsNumber,
		RuleIsArray:           v.IsArray,
		RuleIsObject:          v.IsObject,
		RuleIsTimestamp:       v.IsTimestamp,
		RuleIsUUID:            v.IsUUID,
		RuleIsUUIDArray:       v.IsUUIDArray,
		RuleIsItemFilterArray: v.IsItemFilterArray,
	}
	var out []Rule
	for _, r := range rules {
		if active[r] {
			out = append(out, r)
		}
	}
	return out
}
