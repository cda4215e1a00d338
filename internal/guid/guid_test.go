package guid

import "testing"

func TestJoinFields(t *testing.T) {
	got := JoinFields([]string{"Front", "Back"})
	want := "Front\x1fBack"
	if got != want {
		t.Errorf("Expected joined fields %q, but got %q", want, got)
	}
}

func TestNoteGUID(t *testing.T) {
	t.Run("generates correct guid", func(t *testing.T) {
		got := NoteGUID(JoinFields([]string{"Front", "Back"}))
		want := "e883df8d344c749328315b2cf3857824e5d5979f"
		if got != want {
			t.Errorf("Expected guid %q, but got %q", want, got)
		}
	})

	t.Run("guid is deterministic", func(t *testing.T) {
		a := NoteGUID("hello\x1fworld")
		b := NoteGUID("hello\x1fworld")
		if a != b {
			t.Error("Expected guids for identical content to be the same")
		}
	})

	t.Run("different content has different guids", func(t *testing.T) {
		if NoteGUID("X\x1fY") == NoteGUID("Front\x1fBack") {
			t.Error("Expected guids for different content to be different")
		}
	})
}

func TestChecksum(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  int64
	}{
		{name: "front and back", input: "Front\x1fBack", want: 3900956557},
		{name: "short fields", input: "X\x1fY", want: 1983465952},
		{name: "hello world", input: "hello\x1fworld", want: 212958591},
		{name: "question and answer", input: "What is Go?\x1fA compiled language", want: 2597289882},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Checksum(tc.input)
			if got != tc.want {
				t.Errorf("Expected checksum %d, but got %d", tc.want, got)
			}
		})
	}
}

func TestChecksumFitsUint32(t *testing.T) {
	// The stored value is an integer built from 8 hex digits, never larger.
	if got := Checksum("Front\x1fBack"); got < 0 || got > 0xFFFFFFFF {
		t.Errorf("Expected checksum in uint32 range, got %d", got)
	}
}
