package safe

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewGrayFromBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	mat, err := NewGrayFromBytes(2, 3, data)
	if err != nil {
		t.Fatalf("NewGrayFromBytes: %v", err)
	}
	defer mat.Close()

	if mat.Rows() != 2 || mat.Cols() != 3 {
		t.Fatalf("mat is %dx%d, want 3x2", mat.Cols(), mat.Rows())
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		t.Fatalf("type = %d, want 8UC1", int(mat.Type()))
	}

	v, err := mat.GetUCharAt(1, 2)
	if err != nil {
		t.Fatalf("GetUCharAt: %v", err)
	}
	if v != 6 {
		t.Fatalf("pixel (2,1) = %d, want 6", v)
	}
}

func TestNewGrayFromBytes_LengthMismatch(t *testing.T) {
	if _, err := NewGrayFromBytes(2, 3, []byte{1, 2}); err == nil {
		t.Fatalf("expected error for short pixel buffer")
	}
}

func TestMatClose_InvalidatesAccess(t *testing.T) {
	mat, err := NewMat(4, 4, gocv.MatTypeCV8UC1)
	if err != nil {
		t.Fatalf("NewMat: %v", err)
	}
	mat.Close()

	if mat.IsValid() {
		t.Fatalf("closed Mat reports valid")
	}
	if _, err := mat.GetUCharAt(0, 0); err == nil {
		t.Fatalf("expected error reading a closed Mat")
	}
	// Double close must be safe.
	mat.Close()
}

func TestMatClone_Independent(t *testing.T) {
	mat, err := NewGrayFromBytes(2, 2, []byte{9, 9, 9, 9})
	if err != nil {
		t.Fatalf("NewGrayFromBytes: %v", err)
	}
	defer mat.Close()

	cloned, err := mat.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer cloned.Close()

	if err := cloned.SetUCharAt(0, 0, 1); err != nil {
		t.Fatalf("SetUCharAt: %v", err)
	}
	if v, _ := mat.GetUCharAt(0, 0); v != 9 {
		t.Fatalf("clone shares the source buffer")
	}
}

func TestValidateGrayMat(t *testing.T) {
	floatMat, err := NewMat(2, 2, gocv.MatTypeCV32F)
	if err != nil {
		t.Fatalf("NewMat: %v", err)
	}
	defer floatMat.Close()

	if err := ValidateGrayMat(floatMat, "test"); err == nil {
		t.Fatalf("32F Mat must fail gray validation")
	}
	if err := ValidateGrayMat(nil, "test"); err == nil {
		t.Fatalf("nil Mat must fail validation")
	}

	grayMat, err := NewGrayFromBytes(1, 1, []byte{0})
	if err != nil {
		t.Fatalf("NewGrayFromBytes: %v", err)
	}
	defer grayMat.Close()

	if err := ValidateGrayMat(grayMat, "test"); err != nil {
		t.Fatalf("ValidateGrayMat: %v", err)
	}
}
