// Package services holds cross-cutting helpers shared by the bridge
// stages: the error taxonomy used to classify stage failures and the
// context annotations used for log correlation.
package services
