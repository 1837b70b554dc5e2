package markdown

import "testing"

func TestNormalizeTablesString(t *testing.T) {
	input := "# Inventory\n" +
		"\n" +
		"| Name | Qty |\n" +
		"| ---- | --- |\n" +
		"| bolt | 4 |\n" +
		"| nut  |   |\n" +
		"\n" +
		"done\n"
	want := "# Inventory\n" +
		"\n" +
		"```json\n" +
		"{\"Name\": \"bolt\", \"Qty\": \"4\"}\n" +
		"{\"Name\": \"nut\", \"Qty\": \"\"}\n" +
		"```\n" +
		"\n" +
		"done\n"

	got := NormalizeTablesString(input)
	if got != want {
		t.Errorf("NormalizeTablesString(%q) = %q, want %q", input, got, want)
	}
}

func TestNormalizeTablesString_Cases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "header without alignment row passes through",
			input: "| a | b |\nplain\n",
			want:  "| a | b |\nplain\n",
		},
		{
			name:  "table inside code fence passes through",
			input: "```\n| a |\n| - |\n| v |\n```\n",
			want:  "```\n| a |\n| - |\n| v |\n```\n",
		},
		{
			name:  "alignment colons are accepted",
			input: "| L | R |\n|:---|---:|\n| x | y |\n",
			want:  "```json\n{\"L\": \"x\", \"R\": \"y\"}\n```\n",
		},
		{
			name:  "escaped pipe stays inside its cell",
			input: "| Expr | Out |\n| --- | --- |\n| a \\| b | c |\n",
			want:  "```json\n{\"Expr\": \"a | b\", \"Out\": \"c\"}\n```\n",
		},
		{
			name:  "short row fills missing values",
			input: "| K | V |\n| - | - |\n| x |\n",
			want:  "```json\n{\"K\": \"x\", \"V\": \"\"}\n```\n",
		},
		{
			name:  "long row drops extra cells",
			input: "| K |\n| - |\n| x | y |\n",
			want:  "```json\n{\"K\": \"x\"}\n```\n",
		},
		{
			name:  "table without data rows becomes an empty block",
			input: "| K |\n| - |\nafter\n",
			want:  "```json\n```\nafter\n",
		},
		{
			name:  "quotes in cells are json escaped",
			input: "| Msg |\n| --- |\n| say \"hi\" |\n",
			want:  "```json\n{\"Msg\": \"say \\\"hi\\\"\"}\n```\n",
		},
		{
			name:  "prose with a pipe is not a table",
			input: "either | or\nnext line\n",
			want:  "either | or\nnext line\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTablesString(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeTablesString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
