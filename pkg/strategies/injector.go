/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: injector.go
Description: Shared attempt construction for the vector modules. Turns one dispatched
variant into an immutable PayloadAttempt: classifies the landing response, records the
injection breakdown, and emits the classification entry and HTTP evidence on the logs.
*/

package strategies

import (
	"github.com/google/uuid"
	"github.com/kleascm/hackbench/pkg/analysis"
	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/logging"
)

// Injector classifies dispatched payload variants into attempts.
type Injector struct {
	classifier *analysis.Classifier
	logger     *logging.Logger
}

// NewInjector builds an injector over the given classifier.
func NewInjector(classifier *analysis.Classifier, logger *logging.Logger) *Injector {
	return &Injector{classifier: classifier, logger: logger}
}

// Attempt builds the immutable record for one tried variant. The landing
// response is whatever surface the payload was supposed to appear on: the
// immediate response for reflected, the separate listing fetch for stored.
// A non-nil netErr marks the attempt as a network-level failure.
func (i *Injector) Attempt(
	vector core.Vector,
	variantIndex int,
	payload string,
	point core.InjectionPoint,
	request *core.RequestSnapshot,
	landing *core.ResponseSnapshot,
	netErr error,
) *core.PayloadAttempt {
	attempt := &core.PayloadAttempt{
		ID:           uuid.New().String(),
		Vector:       vector,
		VariantIndex: variantIndex,
		Payload:      payload,
		Point:        point,
		Request:      request,
		Response:     landing,
	}

	if netErr != nil {
		attempt.Outcome = core.OutcomeError
	} else {
		attempt.Outcome = i.classifier.Classify(payload, landing)
	}

	fields := map[string]interface{}{
		"field":   point.Field,
		"method":  point.Method,
		"surface": string(point.Surface),
	}
	if netErr != nil {
		fields["error"] = netErr.Error()
	}
	i.logger.LogClassification(attempt.ID, string(vector), variantIndex, attempt.Outcome.String(), fields)

	return attempt
}
