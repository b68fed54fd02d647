package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/parser"
	"github.com/rill-lang/rill/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	file := token.NewFile("(test)", len(src))
	s := parser.NewScanner(file, []byte(src), func(pos token.FilePos, msg string) {
		t.Fatalf("%s: %s", pos, msg)
	})

	var tokens []token.Token
	for {
		tok, _, _ := s.Scan()
		tokens = append(tokens, tok)
		if tok == token.EOF {
			return tokens
		}
	}
}

func TestScanner(t *testing.T) {
	require.Equal(t, []token.Token{
		token.Let, token.Ident, token.Assign, token.Int, token.Add,
		token.Float, token.Semicolon, token.EOF,
	}, scanAll(t, `let x = 1 + 2.5;`))

	require.Equal(t, []token.Token{
		token.StringLo, token.Int, token.StringHi, token.EOF,
	}, scanAll(t, `"a${1}b"`))

	require.Equal(t, []token.Token{
		token.StringLo, token.HashBrace, token.Ident, token.Colon, token.Int,
		token.RBrace, token.StringHi, token.EOF,
	}, scanAll(t, `"${#{a: 1}}"`))

	require.Equal(t, []token.Token{
		token.Label, token.Colon, token.Loop, token.LBrace,
		token.Break, token.Label, token.Semicolon, token.RBrace, token.EOF,
	}, scanAll(t, `'l: loop { break 'l; }`))

	require.Equal(t, []token.Token{
		token.Shl, token.ShlAssign, token.Shr, token.ShrAssign,
		token.Less, token.LessEq, token.Greater, token.GreaterEq,
		token.Assign, token.Equal, token.DotDot, token.Period,
		token.Underscore, token.EOF,
	}, scanAll(t, `<< <<= >> >>= < <= > >= = == .. . _`))

	// comments are skipped
	require.Equal(t, []token.Token{
		token.Int, token.Int, token.EOF,
	}, scanAll(t, "1 // line\n/* block\nstill */ 2"))
}

func TestScanner_Literals(t *testing.T) {
	scanOne := func(src string) (token.Token, string) {
		f := token.NewFile("(test)", len(src))
		s := parser.NewScanner(f, []byte(src), nil)
		tok, literal, _ := s.Scan()
		return tok, literal
	}

	tok, literal := scanOne(`"a\n\t\"\$b"`)
	require.Equal(t, token.String, tok)
	require.Equal(t, "a\n\t\"$b", literal)

	tok, literal = scanOne("0x1f")
	require.Equal(t, token.Int, tok)
	require.Equal(t, "0x1f", literal)

	tok, literal = scanOne("1_000")
	require.Equal(t, token.Int, tok)
	require.Equal(t, "1_000", literal)

	tok, literal = scanOne("2.5e-3")
	require.Equal(t, token.Float, tok)
	require.Equal(t, "2.5e-3", literal)
}

func parseString(t *testing.T, src string) string {
	t.Helper()
	file := token.NewFile("(test)", len(src))
	parsed, err := parser.Parse(file, []byte(src))
	require.NoError(t, err)
	return parsed.String()
}

func TestParse(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`let x = 1;`, `let x = 1;`},
		{`1 + 2 * 3`, `(1 + (2 * 3))`},
		{`1 << 2 >> 3`, `((1 << 2) >> 3)`},
		{`(1 + 2) * 3`, `(((1 + 2)) * 3)`},
		{`x = 1;`, `x = 1;`},
		{`o.a.0 += 2;`, `o.a.0 += 2;`},
		{`[1, 2]`, `[1, 2]`},
		{`(1,)`, `(1,)`},
		{`(1, 2)`, `(1, 2)`},
		{`()`, `()`},
		{`#{a: 1, b: "x"}`, `#{a: 1, b: "x"}`},
		{`{ let x = 1; x }`, `{ let x = 1; x }`},
		{`if a { 1 } else { 2 }`, `if a { 1 } else { 2 }`},
		{`if a { 1 } else if b { 2 }`, `if a { 1 } else if b { 2 }`},
		{`if let (a, _) = t { a }`, `if let (a, _) = t { a }`},
		{`if let #{host, ..} = cfg { host }`, `if let #{host, ..} = cfg { host }`},
		{`loop { break; }`, `loop { break; }`},
		{`while i < 5 { i += 1; }`, `while (i < 5) { i += 1; }`},
		{`'o: loop { break 'o 1; }`, `'o: loop { break 'o 1; }`},
		{`"x=${y}"`, `"x=${y}"`},
		{`fn add(a, b) { a + b }`, `fn add(a, b) { (a + b) }`},
		{`f(1, 2)`, `f(1, 2)`},
		{`-42`, `-42`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, parseString(t, tt.src), "src: %s", tt.src)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		`let = 1;`,
		`let x 1;`,
		`1 +`,
		`"a${1"`,
		`#{a 1}`,
		`1 = 2;`,
		`'l loop {}`,
		`if { 1 }`,
	}
	for _, src := range tests {
		file := token.NewFile("(test)", len(src))
		_, err := parser.Parse(file, []byte(src))
		require.Error(t, err, "src: %s", src)
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	src := "let x = 1;\nlet = 2;"
	file := token.NewFile("(test)", len(src))
	_, err := parser.Parse(file, []byte(src))
	require.Error(t, err)

	list, ok := err.(parser.ErrorList)
	require.True(t, ok)
	require.NotEmpty(t, list)
	require.Equal(t, 2, list[0].Pos.Line)
}

func TestParseExpr(t *testing.T) {
	file := token.NewFile("(test)", len("1 + 2"))
	expr, err := parser.ParseExpr(file, []byte("1 + 2"))
	require.NoError(t, err)
	require.Equal(t, "(1 + 2)", expr.String())

	file = token.NewFile("(test)", len("1 + 2; 3"))
	_, err = parser.ParseExpr(file, []byte("1 + 2; 3"))
	require.Error(t, err)
}
