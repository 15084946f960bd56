package frame

import "testing"

func TestNewTruncates(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	f := New(0x123, data)
	if f.Len != MaxDataLen {
		t.Fatalf("Len = %d, want %d", f.Len, MaxDataLen)
	}
	for i := 0; i < MaxDataLen; i++ {
		if f.Data[i] != data[i] {
			t.Fatalf("Data[%d] = %d, want %d", i, f.Data[i], data[i])
		}
	}
}

func TestNewExtended(t *testing.T) {
	f := NewExtended(0x1FFFFFFF, []byte{0xAA})
	if !f.IsExtended {
		t.Fatal("expected extended frame")
	}
	if f.ID != 0x1FFFFFFF {
		t.Fatalf("ID = %#x", f.ID)
	}
}

func TestDataSlice(t *testing.T) {
	f := New(1, []byte{9, 8, 7})
	got := f.DataSlice()
	if len(got) != 3 || got[0] != 9 || got[1] != 8 || got[2] != 7 {
		t.Fatalf("DataSlice() = %v", got)
	}
}

func TestZeroValueTimestamp(t *testing.T) {
	f := New(1, nil)
	if f.TimestampUs != 0 {
		t.Fatalf("expected default timestamp 0, got %d", f.TimestampUs)
	}
	if f.Len != 0 {
		t.Fatalf("expected len 0 for nil data, got %d", f.Len)
	}
}
