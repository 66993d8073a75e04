package quantity

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/unit"
)

// Unit is a parsed unit expression. The zero Unit is dimensionless with a
// scale of one.
type Unit struct {
	name string
	// si is the size of one unit in coherent SI base units. It is never
	// handed out since gonum's arithmetic mutates its receiver.
	si     *unit.Unit
	offset float64
}

type unitDef struct {
	scale  float64
	offset float64
	dim    Dimension
}

func (d unitDef) value() unitValue {
	return unitValue{si: unit.New(d.scale, d.dim.dims), offset: d.offset}
}

const (
	lbfInNewton  = 4.4482216152605
	lbInKilogram = 0.45359237
	ftInMeter    = 0.3048
	inchInMeter  = 0.0254
	btuInJoule   = 1055.05585262
)

var (
	dimMass   = NewDimension(unit.Dimensions{unit.MassDim: 1})
	dimLength = NewDimension(unit.Dimensions{unit.LengthDim: 1})
	dimTime   = NewDimension(unit.Dimensions{unit.TimeDim: 1})
	dimVolume = NewDimension(unit.Dimensions{unit.LengthDim: 3})
	dimEnergy = NewDimension(unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2})
	dimPower  = NewDimension(unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -3})
	dimForce  = NewDimension(unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 1, unit.TimeDim: -2})
)

// unitTable maps every recognised unit name to its SI scale and offset.
// Names are case-sensitive so that "K" and "k", "Pa" and "pa" stay distinct.
var unitTable = map[string]unitDef{
	"dimensionless": {scale: 1, dim: Dimensionless},

	"K":          {scale: 1, dim: DimTemperature},
	"kelvin":     {scale: 1, dim: DimTemperature},
	"degC":       {scale: 1, offset: 273.15, dim: DimTemperature},
	"celsius":    {scale: 1, offset: 273.15, dim: DimTemperature},
	"°C":         {scale: 1, offset: 273.15, dim: DimTemperature},
	"degF":       {scale: 5.0 / 9.0, offset: 459.67 * 5.0 / 9.0, dim: DimTemperature},
	"fahrenheit": {scale: 5.0 / 9.0, offset: 459.67 * 5.0 / 9.0, dim: DimTemperature},
	"°F":         {scale: 5.0 / 9.0, offset: 459.67 * 5.0 / 9.0, dim: DimTemperature},
	"degR":       {scale: 5.0 / 9.0, dim: DimTemperature},
	"rankine":    {scale: 5.0 / 9.0, dim: DimTemperature},
	"°R":         {scale: 5.0 / 9.0, dim: DimTemperature},

	"Pa":     {scale: 1, dim: DimPressure},
	"pascal": {scale: 1, dim: DimPressure},
	"kPa":    {scale: 1e3, dim: DimPressure},
	"MPa":    {scale: 1e6, dim: DimPressure},
	"mbar":   {scale: 1e2, dim: DimPressure},
	"bar":    {scale: 1e5, dim: DimPressure},
	"atm":    {scale: 101325, dim: DimPressure},
	"psi":    {scale: lbfInNewton / (inchInMeter * inchInMeter), dim: DimPressure},
	"psia":   {scale: lbfInNewton / (inchInMeter * inchInMeter), dim: DimPressure},

	"m":     {scale: 1, dim: dimLength},
	"meter": {scale: 1, dim: dimLength},
	"metre": {scale: 1, dim: dimLength},
	"cm":    {scale: 1e-2, dim: dimLength},
	"mm":    {scale: 1e-3, dim: dimLength},
	"km":    {scale: 1e3, dim: dimLength},
	"ft":    {scale: ftInMeter, dim: dimLength},
	"foot":  {scale: ftInMeter, dim: dimLength},
	"feet":  {scale: ftInMeter, dim: dimLength},
	"in":    {scale: inchInMeter, dim: dimLength},
	"inch":  {scale: inchInMeter, dim: dimLength},

	"L":     {scale: 1e-3, dim: dimVolume},
	"liter": {scale: 1e-3, dim: dimVolume},
	"litre": {scale: 1e-3, dim: dimVolume},

	"kg":    {scale: 1, dim: dimMass},
	"g":     {scale: 1e-3, dim: dimMass},
	"lb":    {scale: lbInKilogram, dim: dimMass},
	"lbm":   {scale: lbInKilogram, dim: dimMass},
	"pound": {scale: lbInKilogram, dim: dimMass},

	"s":      {scale: 1, dim: dimTime},
	"second": {scale: 1, dim: dimTime},
	"min":    {scale: 60, dim: dimTime},
	"minute": {scale: 60, dim: dimTime},
	"hr":     {scale: 3600, dim: dimTime},
	"hour":   {scale: 3600, dim: dimTime},

	"J":     {scale: 1, dim: dimEnergy},
	"joule": {scale: 1, dim: dimEnergy},
	"kJ":    {scale: 1e3, dim: dimEnergy},
	"MJ":    {scale: 1e6, dim: dimEnergy},
	"BTU":   {scale: btuInJoule, dim: dimEnergy},
	"Btu":   {scale: btuInJoule, dim: dimEnergy},
	"cal":   {scale: 4.184, dim: dimEnergy},
	"kcal":  {scale: 4184, dim: dimEnergy},
	"kWh":   {scale: 3.6e6, dim: dimEnergy},

	"W":  {scale: 1, dim: dimPower},
	"kW": {scale: 1e3, dim: dimPower},

	"N":   {scale: 1, dim: dimForce},
	"kN":  {scale: 1e3, dim: dimForce},
	"lbf": {scale: lbfInNewton, dim: dimForce},
}

// ParseUnit parses a unit expression. Products use "*", "·" or whitespace,
// quotients "/", powers "**" or "^", and parentheses group. Offset units
// (degC, degF) keep their offset only when they stand alone; inside a
// compound unit they behave as temperature differences.
func ParseUnit(expr string) (Unit, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" || trimmed == "dimensionless" {
		return Unit{name: "dimensionless"}, nil
	}
	tokens, err := lex(trimmed)
	if err != nil {
		return Unit{}, err
	}
	p := &parser{tokens: tokens, src: trimmed}
	value, err := p.parseExpr()
	if err != nil {
		return Unit{}, err
	}
	if p.pos != len(p.tokens) {
		return Unit{}, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidUnit, p.tokens[p.pos].text, trimmed)
	}
	parsed := Unit{name: trimmed, si: value.si}
	if len(tokens) == 1 {
		parsed.offset = value.offset
	}
	return parsed, nil
}

// MustParseUnit is like ParseUnit but panics on error. Intended for package
// level tables of known-good units.
func MustParseUnit(expr string) Unit {
	parsed, err := ParseUnit(expr)
	if err != nil {
		panic(err)
	}
	return parsed
}

// Of attaches u to magnitude.
func (u Unit) Of(magnitude float64) Quantity {
	return Quantity{magnitude: magnitude, unit: u.normalized()}
}

// Dimension returns the unit's physical dimension.
func (u Unit) Dimension() Dimension {
	return Dimension{dims: u.base().Dimensions()}
}

// SI returns a copy of one unit expressed in coherent SI base units, e.g.
// 1e3 with [length]**2/[time]**2 for kJ/kg.
func (u Unit) SI() *unit.Unit {
	return u.base()
}

// String returns the expression the unit was parsed from.
func (u Unit) String() string {
	if u.name == "" {
		return "dimensionless"
	}
	return u.name
}

// Compatible reports whether both units share a dimension.
func (u Unit) Compatible(o Unit) bool {
	return unit.DimensionsMatch(u.base(), o.base())
}

func (u Unit) normalized() Unit {
	if u.name == "" {
		u.name = "dimensionless"
	}
	return u
}

// base returns a fresh copy of si, or the dimensionless one.
func (u Unit) base() *unit.Unit {
	if u.si == nil {
		return unit.New(1, nil)
	}
	return unit.New(u.si.Value(), u.si.Dimensions())
}

func (u Unit) scale() float64 {
	if u.si == nil || u.si.Value() == 0 {
		return 1
	}
	return u.si.Value()
}

func (u Unit) toBase(magnitude float64) float64 {
	return magnitude*u.scale() + u.offset
}

func (u Unit) fromBase(base float64) float64 {
	return (base - u.offset) / u.scale()
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokMul
	tokDiv
	tokPow
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) ([]token, error) {
	runes := []rune(src)
	var tokens []token
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				tokens = append(tokens, token{kind: tokPow, text: "**"})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokMul, text: "*"})
			i++
		case r == '·':
			tokens = append(tokens, token{kind: tokMul, text: "·"})
			i++
		case r == '^':
			tokens = append(tokens, token{kind: tokPow, text: "^"})
			i++
		case r == '/':
			tokens = append(tokens, token{kind: tokDiv, text: "/"})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case unicode.IsDigit(r) || r == '-' || r == '.':
			start := i
			i++
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, text: string(runes[start:i])})
		case unicode.IsLetter(r) || r == '°' || r == '_':
			start := i
			i++
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i])})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q in %q", ErrInvalidUnit, r, src)
		}
	}
	return tokens, nil
}

type unitValue struct {
	si     *unit.Unit
	offset float64
}

type parser struct {
	tokens []token
	pos    int
	src    string
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseExpr() (unitValue, error) {
	left, err := p.parseTerm()
	if err != nil {
		return unitValue{}, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind == tokRParen {
			return left, nil
		}
		divide := false
		switch tok.kind {
		case tokMul:
			p.pos++
		case tokDiv:
			divide = true
			p.pos++
		case tokIdent, tokNumber, tokLParen:
			// juxtaposition multiplies
		default:
			return unitValue{}, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidUnit, tok.text, p.src)
		}
		right, err := p.parseTerm()
		if err != nil {
			return unitValue{}, err
		}
		if divide {
			left = unitValue{si: left.si.Div(right.si)}
			continue
		}
		left = unitValue{si: left.si.Mul(right.si)}
	}
}

func (p *parser) parseTerm() (unitValue, error) {
	base, err := p.parseFactor()
	if err != nil {
		return unitValue{}, err
	}
	tok, ok := p.peek()
	if !ok || tok.kind != tokPow {
		return base, nil
	}
	p.pos++
	expTok, ok := p.peek()
	if !ok || expTok.kind != tokNumber {
		return unitValue{}, fmt.Errorf("%w: exponent expected in %q", ErrInvalidUnit, p.src)
	}
	p.pos++
	exp, err := strconv.Atoi(expTok.text)
	if err != nil {
		return unitValue{}, fmt.Errorf("%w: exponent %q must be an integer in %q", ErrInvalidUnit, expTok.text, p.src)
	}
	return unitValue{si: pow(base.si, exp)}, nil
}

func (p *parser) parseFactor() (unitValue, error) {
	tok, ok := p.peek()
	if !ok {
		return unitValue{}, fmt.Errorf("%w: unexpected end of %q", ErrInvalidUnit, p.src)
	}
	p.pos++
	switch tok.kind {
	case tokIdent:
		def, ok := unitTable[tok.text]
		if !ok {
			return unitValue{}, fmt.Errorf("%w: %q", ErrUnknownUnit, tok.text)
		}
		return def.value(), nil
	case tokNumber:
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil || value == 0 {
			return unitValue{}, fmt.Errorf("%w: bad factor %q in %q", ErrInvalidUnit, tok.text, p.src)
		}
		return unitValue{si: unit.New(value, nil)}, nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return unitValue{}, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokRParen {
			return unitValue{}, fmt.Errorf("%w: missing ) in %q", ErrInvalidUnit, p.src)
		}
		p.pos++
		return unitValue{si: inner.si}, nil
	default:
		return unitValue{}, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidUnit, tok.text, p.src)
	}
}

// pow raises u to an integer power. Every step works on fresh units since
// gonum's Mul and Div update their receiver.
func pow(u *unit.Unit, exp int) *unit.Unit {
	out := unit.New(1, nil)
	for i := 0; i < exp; i++ {
		out.Mul(u)
	}
	for i := 0; i > exp; i-- {
		out.Div(u)
	}
	return out
}
