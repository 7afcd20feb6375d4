package gesture

import (
	"math"
	"reflect"
	"testing"

	"github.com/mikoslaf/handsense/internal/detector"
)

func TestExtract_WrongLandmarkCount(t *testing.T) {
	e := NewExtractor()

	for _, n := range []int{0, 5, 20, 22} {
		if _, err := e.Extract(make([]detector.Point3D, n)); err == nil {
			t.Errorf("expected error for %d landmarks", n)
		}
	}
}

func TestExtract_OpenHand(t *testing.T) {
	hand := detector.OpenHandLandmarks()
	s := NewExtractor().ExtractHand(&hand)

	if s.FingerCount != 5 {
		t.Errorf("FingerCount = %d, want 5", s.FingerCount)
	}
	for i, up := range s.FingersUp {
		if !up {
			t.Errorf("finger %s should be up", FingerNames[i])
		}
	}
	if s.IsFist {
		t.Error("open hand must not classify as fist")
	}
}

func TestExtract_Fist(t *testing.T) {
	hand := detector.FistLandmarks()
	s := NewExtractor().ExtractHand(&hand)

	if !s.IsFist {
		t.Error("fist pose should classify as fist")
	}
	if s.FingerCount != 0 {
		t.Errorf("FingerCount = %d, want 0", s.FingerCount)
	}
	if got := s.ActiveFingers(); len(got) != 0 {
		t.Errorf("ActiveFingers = %v, want empty", got)
	}
}

func TestExtract_TwoFingers(t *testing.T) {
	hand := detector.TwoFingersLandmarks()
	s := NewExtractor().ExtractHand(&hand)

	if s.FingerCount != 2 {
		t.Errorf("FingerCount = %d, want 2", s.FingerCount)
	}
	want := []string{"index", "middle"}
	if got := s.ActiveFingers(); !reflect.DeepEqual(got, want) {
		t.Errorf("ActiveFingers = %v, want %v", got, want)
	}
	if s.IsFist {
		t.Error("victory sign must not classify as fist")
	}
}

func TestExtract_CountMatchesFingersUp(t *testing.T) {
	e := NewExtractor()
	hands := []detector.HandLandmarks{
		detector.FistLandmarks(),
		detector.OpenHandLandmarks(),
		detector.TwoFingersLandmarks(),
	}

	for _, hand := range hands {
		s := e.ExtractHand(&hand)

		popcount := 0
		for _, up := range s.FingersUp {
			if up {
				popcount++
			}
		}
		if s.FingerCount != popcount {
			t.Errorf("FingerCount = %d, fingers up = %d", s.FingerCount, popcount)
		}
	}
}

func TestExtract_PalmCenter(t *testing.T) {
	hand := detector.FistLandmarks()
	s := NewExtractor().ExtractHand(&hand)

	// Mean of wrist plus the four finger knuckles.
	wantX, wantY := 0.484, 0.672
	if math.Abs(s.PalmX-wantX) > 1e-9 || math.Abs(s.PalmY-wantY) > 1e-9 {
		t.Errorf("palm center = (%f, %f), want (%f, %f)", s.PalmX, s.PalmY, wantX, wantY)
	}
}

func TestExtract_AnglesInRange(t *testing.T) {
	e := NewExtractor()
	hands := []detector.HandLandmarks{
		detector.FistLandmarks(),
		detector.OpenHandLandmarks(),
		detector.TwoFingersLandmarks(),
	}

	for _, hand := range hands {
		s := e.ExtractHand(&hand)

		for _, angle := range []float64{s.ThumbPalmAngle, s.ThumbIndexAngle} {
			if math.IsNaN(angle) {
				t.Fatal("angle must never be NaN")
			}
			if angle < 0 || angle > 180 {
				t.Errorf("angle %f outside [0, 180]", angle)
			}
		}
	}
}

func TestExtract_DegenerateHand(t *testing.T) {
	// Every landmark collapsed onto one point: zero hand scale.
	points := make([]detector.Point3D, detector.NumLandmarks)
	for i := range points {
		points[i] = detector.Point3D{X: 0.5, Y: 0.5, Z: 0}
	}

	s, err := NewExtractor().Extract(points)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if s.IsFist {
		t.Error("degenerate geometry must fail closed to not-a-fist")
	}
	if math.IsNaN(s.ThumbPalmAngle) || math.IsNaN(s.ThumbIndexAngle) {
		t.Error("degenerate geometry must not produce NaN angles")
	}
}

func TestFistClassifiers_AgreeOnFixtures(t *testing.T) {
	fist := detector.FistLandmarks()
	open := detector.OpenHandLandmarks()

	classifiers := []struct {
		name string
		c    FistClassifier
	}{
		{"fold_count", FoldCountClassifier{}},
		{"centroid", CentroidClassifier{}},
	}

	for _, tt := range classifiers {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.c.ClassifyFist(&fist) {
				t.Error("fist pose should classify as fist")
			}
			if tt.c.ClassifyFist(&open) {
				t.Error("open hand should not classify as fist")
			}
		})
	}
}

func TestNewExtractorWithFist_NilFallsBack(t *testing.T) {
	e := NewExtractorWithFist(nil)
	hand := detector.FistLandmarks()

	if s := e.ExtractHand(&hand); !s.IsFist {
		t.Error("default classifier should detect the fist fixture")
	}
}

func TestSnapshot_Reading(t *testing.T) {
	hand := detector.TwoFingersLandmarks()
	s := NewExtractor().ExtractHand(&hand)

	r := s.Reading()
	if r.FingerCount != 2 || r.IsFist {
		t.Errorf("reading = %+v, want two fingers and no fist", r)
	}
	if !reflect.DeepEqual(r.ActiveFingers, []string{"index", "middle"}) {
		t.Errorf("ActiveFingers = %v", r.ActiveFingers)
	}
}
