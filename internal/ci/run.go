package ci

import (
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/kendru/darwin/go/depgraph"
	"github.com/sirupsen/logrus"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/rules"
	"github.com/conveyor-ci/conveyor/internal/runnable"
)

func BlockRunWithRetries(conductor *Conductor, runnableId string, runnable Block, handler *Handler, rootLogger logrus.Ext1FieldLogger, opts ...runnable.Option) {
	logger := rootLogger.WithField("orchestra", "run")
	logger.Debug("starting runnable with retries ", runnableId)
	stageDiags := runnable.Run(conductor, opts...)

	logger.Tracef("signaling runnable %s", runnableId)

	if !stageDiags.HasErrors() {
		handler.Tracker.RunnableDone()
		return
	}
	if !runnable.CanRetry() {
		logger.Debug("runnable cannot be retried")
	} else {
		logger.Infof("retrying runnable %s", runnableId)
		retryCount := 0
		retryMinBackOff := time.Duration(runnable.MinRetryBackoff()) * time.Second
		retryMaxBackOff := time.Duration(runnable.MaxRetryBackoff()) * time.Second
		retrySuccess := false
		for retryCount < runnable.MaxRetries() {
			retryCount++
			sleepDuration := time.Duration(1) * time.Second
			if runnable.RetryExponentialBackoff() {
				if retryMinBackOff*time.Duration(retryCount) > retryMaxBackOff && retryMaxBackOff > 0 {
					sleepDuration = retryMaxBackOff
				} else {
					sleepDuration = retryMinBackOff * time.Duration(retryCount)
				}
			} else {
				sleepDuration = retryMinBackOff
			}
			logger.Warnf("runnable %s failed, retrying in %s", runnableId, sleepDuration)
			time.Sleep(sleepDuration)
			sDiags := runnable.Run(conductor, opts...)
			stageDiags = append(stageDiags, sDiags...)

			if !sDiags.HasErrors() {
				retrySuccess = true
				break
			}
		}

		if !retrySuccess {
			logger.Warnf("runnable %s failed after %d retries", runnableId, retryCount)
		}

	}
	handler.Diags.Extend(stageDiags)
	handler.Tracker.RunnableDone()
}

// BlockCanRun decides whether a block participates in this run. The
// block's own condition is consulted first, then the stage filters from
// the command line. A filter names either a stage address (stage.test),
// a phase (lint), "default" or "all"; the + and ^ prefixes force-enable
// and remove stages respectively. Non-stage blocks always follow their
// own condition, since skipping a service or a variable that a kept
// stage references would only produce confusing failures downstream.
func BlockCanRun(block Block, conductor *Conductor, runnableId string, depGraph *depgraph.Graph, opts ...runnable.Option) (ok bool, overridden bool, diags hcl.Diagnostics) {

	filterList := conductor.Config.Pipeline.Filtered
	ok, d := block.CanRun(conductor, opts...)
	if d.HasErrors() {
		diags = diags.Extend(d)
		return false, false, diags
	}

	if block.Type() != blocks.StageBlock {
		return ok, false, diags
	}

	if len(filterList) == 0 {
		filterList = append(filterList, rules.NewOperation(rules.OperationTypeAnd, "default"))
	}

	for _, rule := range filterList {
		if rule.RunnableId() == "all" {
			return ok, false, diags
		}
	}

	stage, isStage := block.(*Stage)
	oldOk := ok
	ok = false
	overridden = false

	for _, rule := range filterList {
		if rule.RunnableId() == runnableId && rule.Operation() == rules.OperationTypeAdd {
			ok = true
			overridden = true
		}
		if rule.RunnableId() == runnableId && rule.Operation() == rules.OperationTypeSub {
			ok = false
			overridden = true
		}
		if rule.RunnableId() == runnableId && rule.Operation() == rules.OperationTypeAnd {
			ok = oldOk
			overridden = true
		}
		if rule.Operation() == rules.OperationTypeAnd && depGraph.DependsOn(rule.RunnableId(), runnableId) {
			ok = oldOk
			overridden = true
		}
		if isStage && rule.RunnableId() == stage.EffectivePhase() {
			ok = oldOk
			overridden = false
		}
		if rule.RunnableId() == "default" {
			ok = oldOk
			overridden = false
		}
	}
	return ok, overridden, diags
}
