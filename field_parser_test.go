package csvstream

import (
	"errors"
	"reflect"
	"testing"
)

// =============================================================================
// parseRecord Tests
// =============================================================================

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		row  string
		want []string
	}{
		{name: "single cell", row: "a", want: []string{"a"}},
		{name: "empty row", row: "", want: []string{""}},
		{name: "simple", row: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "trailing separator", row: "a,b,", want: []string{"a", "b", ""}},
		{name: "leading separator", row: ",a", want: []string{"", "a"}},
		{name: "only separators", row: ",,", want: []string{"", "", ""}},
		{name: "quoted separator", row: `"a,b",c`, want: []string{"a,b", "c"}},
		{name: "doubled quote", row: `"Hello ""World"""`, want: []string{`Hello "World"`}},
		{name: "empty quoted", row: `"",x`, want: []string{"", "x"}},
		{name: "quoted newline", row: "\"a\nb\",c", want: []string{"a\nb", "c"}},
		{name: "quote inside unquoted cell opens quotes", row: `a"b,c"`, want: []string{`a"b,c"`}},
		{name: "spaces kept", row: " a , b ", want: []string{" a ", " b "}},
		{name: "text after closing quote", row: `"a"b,c`, want: []string{`"a"b`, "c"}},
		{name: "unicode", row: "日本,語", want: []string{"日本", "語"}},
		{
			name: "semicolon separator",
			opts: Options{Separator: ';'},
			row:  `a;"b;c";d`,
			want: []string{"a", "b;c", "d"},
		},
		{
			name: "tab separator",
			opts: Options{Separator: '\t'},
			row:  "a\tb",
			want: []string{"a", "b"},
		},
		{
			name: "single quote",
			opts: Options{Quote: '\''},
			row:  `'a,b','it''s'`,
			want: []string{"a,b", "it's"},
		},
		{
			name: "backslash escape",
			opts: Options{Escape: '\\'},
			row:  `"say \"hi\"",x`,
			want: []string{`say "hi"`, "x"},
		},
		{
			name: "backslash escape outside quotes is literal",
			opts: Options{Escape: '\\'},
			row:  `a\b,c`,
			want: []string{`a\b`, "c"},
		},
		{
			name: "escaped quote before separator",
			opts: Options{Escape: '\\'},
			row:  `"a\",b",c`,
			want: []string{`a",b`, "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.opts.resolve()
			f := newFieldParser(&cfg)
			got, err := f.parseRecord([]byte(tt.row))
			if err != nil {
				t.Fatalf("parseRecord(%q) error: %v", tt.row, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseRecord(%q) = %q, want %q", tt.row, got, tt.want)
			}
		})
	}
}

// TestParseRecord_BufferReuse checks that cells of an earlier row are not
// overwritten by the next one.
func TestParseRecord_BufferReuse(t *testing.T) {
	cfg := Options{}.resolve()
	f := newFieldParser(&cfg)

	first, err := f.parseRecord([]byte("alpha,beta"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.parseRecord([]byte("gamma,delta")); err != nil {
		t.Fatal(err)
	}
	if want := []string{"alpha", "beta"}; !reflect.DeepEqual(first, want) {
		t.Errorf("first record = %q after reuse, want %q", first, want)
	}
}

func TestParseRecord_InvalidUTF8(t *testing.T) {
	row := []byte("ok,a\xffb")

	t.Run("strict decoding fails", func(t *testing.T) {
		cfg := Options{}.resolve()
		_, err := newFieldParser(&cfg).parseRecord(row)
		if !errors.Is(err, ErrInvalidUTF8) {
			t.Fatalf("error = %v, want ErrInvalidUTF8", err)
		}
	})

	t.Run("raw mode replaces", func(t *testing.T) {
		cfg := Options{Raw: true}.resolve()
		got, err := newFieldParser(&cfg).parseRecord(row)
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		want := []string{"ok", "a�b"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

// =============================================================================
// Trimming Tests
// =============================================================================

func TestTrimTerminator(t *testing.T) {
	tests := []struct {
		row     string
		newline byte
		want    string
	}{
		{"a,b\n", '\n', "a,b"},
		{"a,b\r\n", '\n', "a,b"},
		{"a,b", '\n', "a,b"},
		{"a,b\r", '\n', "a,b"},
		{"\n", '\n', ""},
		{"\r\n", '\n', ""},
		{"a;", ';', "a"},
		{"a\r;", ';', "a"},
		{"a\n\n", '\n', "a\n"},
	}
	for _, tt := range tests {
		if got := string(trimTerminator([]byte(tt.row), tt.newline)); got != tt.want {
			t.Errorf("trimTerminator(%q, %q) = %q, want %q", tt.row, tt.newline, got, tt.want)
		}
	}
}

func TestFirstNonBlank(t *testing.T) {
	tests := []struct {
		row    string
		want   byte
		wantOK bool
	}{
		{"#x", '#', true},
		{"  \t#x", '#', true},
		{"a", 'a', true},
		{"", 0, false},
		{" \t ", 0, false},
	}
	for _, tt := range tests {
		got, ok := firstNonBlank([]byte(tt.row))
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("firstNonBlank(%q) = (%q, %v), want (%q, %v)", tt.row, got, ok, tt.want, tt.wantOK)
		}
	}
}

// =============================================================================
// Compatibility Tests
// =============================================================================

func TestParse_CompareWithStdlib(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  *readerOptions
	}{
		{name: "simple", input: "a,b,c\n1,2,3\n"},
		{name: "no trailing newline", input: "a,b\nc,d"},
		{name: "quoted", input: "\"a,b\",c\n\"d\",\"e\"\n"},
		{name: "doubled quotes", input: "\"he said \"\"hi\"\"\",x\n"},
		{name: "multiline", input: "\"line1\nline2\",x\ny,z\n"},
		{name: "crlf", input: "a,b\r\nc,d\r\n"},
		{name: "empty fields", input: ",,\na,,b\n"},
		{name: "trailing separator", input: "a,b,\n"},
		{name: "blank lines", input: "a\n\n\nb\n"},
		{name: "ragged", input: "a\nb,c\nd,e,f\n"},
		{name: "unicode", input: "名前,年齢\n太郎,30\n"},
		{name: "leading spaces", input: " a, b\n"},
		{name: "semicolon", input: "a;b\n\"c;d\";e\n", opts: &readerOptions{comma: ';'}},
		{name: "tab", input: "a\tb\nc\td\n", opts: &readerOptions{comma: '\t'}},
		{name: "comment", input: "#skip\na,b\n#also\nc,d\n", opts: &readerOptions{comment: '#'}},
		{name: "quoted empty", input: "\"\",\"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compareWithStdlib(t, tt.input, tt.opts)
		})
	}
}
