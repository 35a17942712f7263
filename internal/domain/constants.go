package domain

// CategoryDisplayNames maps catalog category slugs to filter labels.
var CategoryDisplayNames = map[string]string{
	"argila":       "Argila Pura",
	"dermocare":    "Dermocare",
	"puraessencia": "Pura Essência",
	"natureza":     "Essência da Natureza",
	"oleos":        "Óleos Puros",
	"lume":         "Lume",
	"alento":       "Alento",
	"duocare":      "Duocare",
	"petcare":      "Pet Care",
}

// Checkout texts
const (
	CheckoutGreeting     = "Olá! Gostaria de fazer o seguinte pedido:"
	CheckoutEmptyMessage = "Seu carrinho está vazio!"
)

const (
	// MaxPageSize caps the requested catalog page size.
	MaxPageSize = 100
	// HomeTabSize is how many products the bestseller and new tabs show.
	HomeTabSize = 8
	// HomeSetsCategory feeds the home page "sets" tab.
	HomeSetsCategory = "dermocare"
)
