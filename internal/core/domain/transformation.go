package domain

import (
	"fmt"
	"strings"
)

type TransformMode string

const (
	ModeRewrite    TransformMode = "rewrite"
	ModeParaphrase TransformMode = "paraphrase"
	ModeGrammar    TransformMode = "grammar"
)

func ParseTransformMode(raw string) (TransformMode, error) {
	switch mode := TransformMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case ModeRewrite, ModeParaphrase, ModeGrammar:
		return mode, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse transform mode", fmt.Errorf("unknown mode %q", raw))
	}
}

// Origin maps a mode to the origin recorded on the transformed Document.
func (m TransformMode) Origin() DocumentOrigin {
	switch m {
	case ModeGrammar:
		return OriginGrammar
	case ModeParaphrase:
		return OriginParaphrase
	default:
		return OriginRewrite
	}
}

type TransformIntensity string

const (
	IntensityLight    TransformIntensity = "light"
	IntensityStandard TransformIntensity = "standard"
	IntensityStrong   TransformIntensity = "strong"
)

func ParseTransformIntensity(raw string) (TransformIntensity, error) {
	switch intensity := TransformIntensity(strings.ToLower(strings.TrimSpace(raw))); intensity {
	case "":
		return IntensityStandard, nil
	case IntensityLight, IntensityStandard, IntensityStrong:
		return intensity, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse transform intensity", fmt.Errorf("unknown intensity %q", raw))
	}
}

// TransformRequest selects a transformation collaborator and its strength.
type TransformRequest struct {
	Mode      TransformMode      `json:"mode"`
	Intensity TransformIntensity `json:"intensity"`
	// Focus lists sentence texts the transformer should prioritise.
	Focus []string `json:"focus,omitempty"`
}

type AfterStatus string

const (
	AfterAvailable       AfterStatus = "available"
	AfterUnavailable     AfterStatus = "unavailable"
	AfterTransformFailed AfterStatus = "transform_failed"
)

// TransformationResult pairs a source Document with its transformed version
// and both scores. Delta is set only when both document scores exist.
type TransformationResult struct {
	Source          *Document            `json:"source"`
	Transformed     *Document            `json:"transformed,omitempty"`
	Mode            TransformMode        `json:"mode,omitempty"`
	Before          *Score               `json:"before"`
	After           *Score               `json:"after,omitempty"`
	AfterStatus     AfterStatus          `json:"after_status"`
	AfterError      string               `json:"after_error,omitempty"`
	Delta           *float64             `json:"delta,omitempty"`
	BeforeSentences []SentenceDiagnostic `json:"before_sentences"`
	AfterSentences  []SentenceDiagnostic `json:"after_sentences,omitempty"`
}
