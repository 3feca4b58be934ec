package typesys

// TypeAny is compatible with every other type in both directions. The
// validator special-cases it, so it declares no compatibility list here.
const TypeAny = "any"

// Built-in type IDs used by the core and the bundled modules.
const (
	TypeString      = "string"
	TypeNumber      = "number"
	TypeBoolean     = "boolean"
	TypeObject      = "object"
	TypeArray       = "array"
	TypeAddress     = "address"
	TypeTokenAmount = "token-amount"
	TypeTransaction = "transaction"
	TypeSignal      = "signal"
)

// builtins is the static catalog registered into every new runtime. The
// CompatibleWith lists encode the free conversions: identity aside, these
// are the connections the validator accepts at cost 0.
var builtins = []*DataType{
	{ID: TypeAny, Name: "Any", Category: "primitive"},
	{ID: TypeString, Name: "String", Category: "primitive"},
	{ID: TypeNumber, Name: "Number", Category: "primitive", CompatibleWith: []string{TypeString}},
	{ID: TypeBoolean, Name: "Boolean", Category: "primitive"},
	{ID: TypeObject, Name: "Object", Category: "structured", CompatibleWith: []string{TypeString}},
	{ID: TypeArray, Name: "Array", Category: "structured"},
	{ID: TypeAddress, Name: "Address", Category: "web3", CompatibleWith: []string{TypeString}},
	{ID: TypeTokenAmount, Name: "Token Amount", Category: "web3"},
	{ID: TypeTransaction, Name: "Transaction", Category: "web3", CompatibleWith: []string{TypeObject}},
	{ID: TypeSignal, Name: "Signal", Category: "control"},
}

// RegisterBuiltins adds the built-in type catalog to a registry. It panics
// on a duplicate, which can only mean the registry was seeded twice.
func RegisterBuiltins(r *Registry) {
	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}
