package textgrid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type tokenKind int

const (
	tokenString tokenKind = iota
	tokenNumber
	tokenFlag
)

func (k tokenKind) String() string {
	switch k {
	case tokenString:
		return "string"
	case tokenNumber:
		return "number"
	default:
		return "flag"
	}
}

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
}

// Parse reads a Praat text TextGrid in either the long or the short layout.
// UTF-8 input may carry a BOM; UTF-16 input must.
func Parse(r io.Reader) (*TextGrid, error) {
	decoded := transform.NewReader(r, xunicode.BOMOverride(xunicode.UTF8.NewDecoder()))
	toks, err := tokenize(bufio.NewReader(decoded))
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.textGrid()
}

// tokenize keeps only the values of a TextGrid: quoted strings, numbers and
// <flags>. Labels such as "xmin =", "item [1]:" and "! comments" carry no
// information in either layout and are discarded.
func tokenize(r *bufio.Reader) ([]token, error) {
	var toks []token
	line := 1
	for {
		ch, _, err := r.ReadRune()
		if err == io.EOF {
			return toks, nil
		}
		if err != nil {
			return nil, err
		}
		switch {
		case ch == '\n':
			line++
		case unicode.IsSpace(ch), ch == '=', ch == ':':
		case ch == '"':
			start := line
			var b strings.Builder
			for {
				c, _, err := r.ReadRune()
				if err == io.EOF {
					return nil, &ParseError{Line: start, Msg: "unterminated string"}
				}
				if err != nil {
					return nil, err
				}
				if c == '\n' {
					line++
				}
				if c == '"' {
					next, _, err := r.ReadRune()
					if err == nil && next == '"' {
						b.WriteRune('"')
						continue
					}
					if err == nil {
						_ = r.UnreadRune()
					}
					break
				}
				b.WriteRune(c)
			}
			toks = append(toks, token{kind: tokenString, text: b.String(), line: start})
		case ch == '!':
			if _, err := r.ReadString('\n'); err != nil && err != io.EOF {
				return nil, err
			}
			line++
		case ch == '<':
			text, err := r.ReadString('>')
			if err != nil {
				return nil, &ParseError{Line: line, Msg: "unterminated flag"}
			}
			toks = append(toks, token{kind: tokenFlag, text: "<" + text, line: line})
		case ch == '[':
			text, err := r.ReadString(']')
			if err != nil {
				return nil, &ParseError{Line: line, Msg: "unterminated index"}
			}
			line += strings.Count(text, "\n")
		default:
			var b strings.Builder
			b.WriteRune(ch)
			for {
				c, _, err := r.ReadRune()
				if err != nil {
					break
				}
				if unicode.IsSpace(c) || c == '=' || c == '"' || c == '!' || c == '[' || c == '<' {
					_ = r.UnreadRune()
					break
				}
				b.WriteRune(c)
			}
			word := b.String()
			if !looksNumeric(word) {
				continue
			}
			num, err := strconv.ParseFloat(word, 64)
			if err != nil {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("invalid number %q", word)}
			}
			toks = append(toks, token{kind: tokenNumber, text: word, num: num, line: line})
		}
	}
}

func looksNumeric(word string) bool {
	if word == "" {
		return false
	}
	c := word[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) line() int {
	if p.pos < len(p.toks) {
		return p.toks[p.pos].line
	}
	if len(p.toks) > 0 {
		return p.toks[len(p.toks)-1].line
	}
	return 0
}

func (p *parser) next(kind tokenKind, what string) (token, error) {
	if p.pos >= len(p.toks) {
		return token{}, &ParseError{Line: p.line(), Msg: fmt.Sprintf("unexpected end of file, want %s", what)}
	}
	tok := p.toks[p.pos]
	if tok.kind != kind {
		return token{}, &ParseError{Line: tok.line, Msg: fmt.Sprintf("want %s (%s), found %s %q", what, kind, tok.kind, tok.text)}
	}
	p.pos++
	return tok, nil
}

func (p *parser) str(what string) (string, error) {
	tok, err := p.next(tokenString, what)
	return tok.text, err
}

func (p *parser) num(what string) (float64, error) {
	tok, err := p.next(tokenNumber, what)
	return tok.num, err
}

func (p *parser) count(what string) (int, error) {
	tok, err := p.next(tokenNumber, what)
	if err != nil {
		return 0, err
	}
	n := int(tok.num)
	if float64(n) != tok.num || n < 0 {
		return 0, &ParseError{Line: tok.line, Msg: fmt.Sprintf("invalid %s %q", what, tok.text)}
	}
	return n, nil
}

func (p *parser) textGrid() (*TextGrid, error) {
	fileType, err := p.str("file type")
	if err != nil {
		return nil, err
	}
	if fileType != "ooTextFile" {
		return nil, &ParseError{Line: 1, Msg: fmt.Sprintf("unsupported file type %q", fileType)}
	}
	class, err := p.str("object class")
	if err != nil {
		return nil, err
	}
	if class != "TextGrid" {
		return nil, &ParseError{Line: p.line(), Msg: fmt.Sprintf("object class %q is not TextGrid", class)}
	}

	tg := &TextGrid{}
	if tg.Start, err = p.num("xmin"); err != nil {
		return nil, err
	}
	if tg.End, err = p.num("xmax"); err != nil {
		return nil, err
	}
	flag, err := p.next(tokenFlag, "tiers flag")
	if err != nil {
		return nil, err
	}
	switch flag.text {
	case "<absent>":
		return tg, nil
	case "<exists>":
	default:
		return nil, &ParseError{Line: flag.line, Msg: fmt.Sprintf("unknown tiers flag %s", flag.text)}
	}

	size, err := p.count("tier count")
	if err != nil {
		return nil, err
	}
	tg.Tiers = make([]Tier, 0, size)
	for i := 0; i < size; i++ {
		tier, err := p.tier()
		if err != nil {
			return nil, err
		}
		tg.Tiers = append(tg.Tiers, tier)
	}
	return tg, nil
}

func (p *parser) tier() (Tier, error) {
	var tier Tier
	var err error
	startLine := p.line()
	if tier.Class, err = p.str("tier class"); err != nil {
		return tier, err
	}
	if tier.Name, err = p.str("tier name"); err != nil {
		return tier, err
	}
	if tier.Start, err = p.num("tier xmin"); err != nil {
		return tier, err
	}
	if tier.End, err = p.num("tier xmax"); err != nil {
		return tier, err
	}
	n, err := p.count("item count")
	if err != nil {
		return tier, err
	}

	switch tier.Class {
	case ClassInterval:
		tier.Intervals = make([]Interval, 0, n)
		for i := 0; i < n; i++ {
			var iv Interval
			line := p.line()
			if iv.Start, err = p.num("interval xmin"); err != nil {
				return tier, err
			}
			if iv.End, err = p.num("interval xmax"); err != nil {
				return tier, err
			}
			if iv.Label, err = p.str("interval text"); err != nil {
				return tier, err
			}
			if iv.End < iv.Start {
				return tier, &ParseError{Line: line, Msg: fmt.Sprintf("interval %d of tier %q ends before it starts", i+1, tier.Name)}
			}
			tier.Intervals = append(tier.Intervals, iv)
		}
	case ClassText:
		tier.Points = make([]Point, 0, n)
		for i := 0; i < n; i++ {
			var pt Point
			if pt.Time, err = p.num("point time"); err != nil {
				return tier, err
			}
			if pt.Mark, err = p.str("point mark"); err != nil {
				return tier, err
			}
			tier.Points = append(tier.Points, pt)
		}
	default:
		return tier, &ParseError{Line: startLine, Msg: fmt.Sprintf("unknown tier class %q", tier.Class)}
	}
	return tier, nil
}
