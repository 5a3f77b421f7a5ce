package patch

import "testing"

func TestExtractFilesModeLines(t *testing.T) {
	cases := []struct {
		name string
		diff string
		want ChangeKind
	}{
		{"created", "diff --git a/x b/y\nnew file mode 100644\n--- /dev/null\n+++ b/y\n", Created},
		{"deleted", "diff --git a/x b/y\ndeleted file mode 100644\n--- a/x\n+++ /dev/null\n", Deleted},
		{"edited", "diff --git a/x b/y\n", Edited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			files := ExtractFiles(tc.diff)
			if len(files) != 1 || files[0].Path != "y" || files[0].Kind != tc.want {
				t.Fatalf("unexpected files: %#v", files)
			}
		})
	}
}

func TestExtractFilesPreservesOrderAcrossBlocks(t *testing.T) {
	diff := `diff --git a/cmd/main.go b/cmd/main.go
index 1111111..2222222 100644
--- a/cmd/main.go
+++ b/cmd/main.go
@@ -1 +1 @@
-old
+new
diff --git a/docs/new.md b/docs/new.md
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/docs/new.md
@@ -0,0 +1 @@
+hello
diff --git a/legacy.txt b/legacy.txt
deleted file mode 100644
`
	files := ExtractFiles(diff)
	want := []FileChange{
		{Path: "cmd/main.go", Kind: Edited},
		{Path: "docs/new.md", Kind: Created},
		{Path: "legacy.txt", Kind: Deleted},
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %#v", len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("file %d: got %#v want %#v", i, files[i], want[i])
		}
	}
	if got := Summary(files); got != "1 created, 1 edited, 1 deleted" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestExtractFilesModeLineDoesNotLeakToNextHeader(t *testing.T) {
	diff := "diff --git a/a b/a\nnew file mode 100644\ndiff --git a/b b/b\n"
	files := ExtractFiles(diff)
	if len(files) != 2 || files[0].Kind != Created || files[1].Kind != Edited {
		t.Fatalf("unexpected files: %#v", files)
	}
}

func TestExtractFilesRenameUsesDestination(t *testing.T) {
	files := ExtractFiles("diff --git a/old/name.go b/new/name.go\nsimilarity index 90%\n")
	if len(files) != 1 || files[0].Path != "new/name.go" {
		t.Fatalf("unexpected files: %#v", files)
	}
}

func TestExtractFilesNameContainingSideMarker(t *testing.T) {
	cases := map[string]string{
		"diff --git a/docs b/readme.md b/docs b/readme.md\n": "docs b/readme.md",
		"diff --git a/x b/y b/x b/y\nnew file mode 100644\n": "x b/y",
		"diff --git a/a b/a\n":                               "a",
	}
	for diff, want := range cases {
		files := ExtractFiles(diff)
		if len(files) != 1 || files[0].Path != want {
			t.Fatalf("ExtractFiles(%q) = %#v, want path %q", diff, files, want)
		}
	}

	renamed := ExtractFiles("diff --git a/old b/new.md b/new b/new.md\n")
	if len(renamed) != 1 || renamed[0].Path != "new.md" {
		t.Fatalf("expected rename to keep the last b/ side, got %#v", renamed)
	}
}

func TestExtractFilesQuotedPath(t *testing.T) {
	files := ExtractFiles("diff --git \"a/dir/with space.txt\" \"b/dir/with space.txt\"\nnew file mode 100644\n")
	if len(files) != 1 || files[0].Path != "dir/with space.txt" || files[0].Kind != Created {
		t.Fatalf("unexpected files: %#v", files)
	}
}

func TestExtractFilesEmptyAndMalformed(t *testing.T) {
	inputs := []string{
		"",
		"not a diff at all",
		"new file mode 100644\n",
		"diff --git\n",
		"diff --git garbage-without-sides\n",
		"\x00\xff\xfe",
		"diff --git \"a/x\" \"b/unterminated\n",
	}
	for _, input := range inputs {
		files := ExtractFiles(input)
		if len(files) != 0 {
			t.Fatalf("ExtractFiles(%q) = %#v, want empty", input, files)
		}
	}
}

func TestExtractFilesCRLF(t *testing.T) {
	files := ExtractFiles("diff --git a/win.txt b/win.txt\r\ndeleted file mode 100644\r\n")
	if len(files) != 1 || files[0].Path != "win.txt" || files[0].Kind != Deleted {
		t.Fatalf("unexpected files: %#v", files)
	}
}

func TestParseChangeKind(t *testing.T) {
	cases := map[string]ChangeKind{
		"created":  Created,
		"ADDED":    Created,
		"edited":   Edited,
		"MODIFIED": Edited,
		"deleted":  Deleted,
		"DELETED":  Deleted,
		"":         Edited,
		"renamed":  Edited,
	}
	for input, want := range cases {
		if got := ParseChangeKind(input); got != want {
			t.Fatalf("ParseChangeKind(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSummaryEmpty(t *testing.T) {
	if got := Summary(nil); got != "no files" {
		t.Fatalf("unexpected summary: %q", got)
	}
}
