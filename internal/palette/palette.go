package palette

// Color es el nombre legible de un color de la paleta (lo que guarda la API).
type Color string

const (
	Red        Color = "Vermelho"
	Blue       Color = "Azul"
	Yellow     Color = "Amarelo"
	Orange     Color = "Laranja"
	LightBlue  Color = "Azul claro"
	White      Color = "Branco"
	LightGreen Color = "Verde claro"
	DarkGreen  Color = "Verde escuro"
	Black      Color = "Preto"
	Orchid     Color = "Orquídea"
)

// Fallback se usa cuando llega un nombre o hex desconocido.
// Un color malformado nunca debe romper la alerta.
const (
	Fallback    = Red
	FallbackHex = "#FF0000"
)

// Swatch es una entrada de la paleta.
type Swatch struct {
	Name Color  `json:"name"`
	Hex  string `json:"hex"`
}

// orden del selector de colores
var swatches = []Swatch{
	{Name: Red, Hex: "#FF0000"},
	{Name: Blue, Hex: "#4B00FF"},
	{Name: Yellow, Hex: "#FFFF00"},
	{Name: Orange, Hex: "#FFA500"},
	{Name: LightBlue, Hex: "#00CFFF"},
	{Name: White, Hex: "#FFFFFF"},
	{Name: LightGreen, Hex: "#00FF7F"},
	{Name: DarkGreen, Hex: "#006400"},
	{Name: Black, Hex: "#000000"},
	{Name: Orchid, Hex: "#DA70D6"},
}

var (
	hexByName = map[Color]string{}
	nameByHex = map[string]Color{}
)

func init() {
	for _, s := range swatches {
		hexByName[s.Name] = s.Hex
		nameByHex[s.Hex] = s.Name
	}
}

// All devuelve una copia de la paleta en el orden del selector.
func All() []Swatch {
	out := make([]Swatch, len(swatches))
	copy(out, swatches)
	return out
}

// Valid reporta si name pertenece a la paleta (match exacto, case-sensitive).
func Valid(name Color) bool {
	_, ok := hexByName[name]
	return ok
}

// HexOf devuelve el hex del color; nombres desconocidos => FallbackHex.
func HexOf(name Color) string {
	if h, ok := hexByName[name]; ok {
		return h
	}
	return FallbackHex
}

// NameOf devuelve el nombre del hex; hex desconocidos => Fallback.
func NameOf(hex string) Color {
	if n, ok := nameByHex[hex]; ok {
		return n
	}
	return Fallback
}
