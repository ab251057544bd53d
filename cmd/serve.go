// Copyright © 2018 NAME HERE <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nyxsat/pusd/ccsds"
	"github.com/nyxsat/pusd/clock"
	"github.com/nyxsat/pusd/dispatch"
	"github.com/nyxsat/pusd/internal/config"
	"github.com/nyxsat/pusd/internal/debugserver"
	"github.com/nyxsat/pusd/registry"
	"github.com/nyxsat/pusd/services/event"
	"github.com/nyxsat/pusd/services/eventaction"
	"github.com/nyxsat/pusd/services/function"
	"github.com/nyxsat/pusd/services/housekeeping"
	"github.com/nyxsat/pusd/services/largepacket"
	"github.com/nyxsat/pusd/services/parameter"
	"github.com/nyxsat/pusd/services/schedule"
	"github.com/nyxsat/pusd/services/test"
	"github.com/nyxsat/pusd/services/verification"
	"github.com/nyxsat/pusd/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the PUS core: dispatcher, services and debug server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func setupLogging(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Logs.Directory, 0o755); err != nil {
		return err
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.Logs.Directory + "/pusd.log",
		MaxSize:    cfg.Logs.MaxSizeMB,
		MaxAge:     cfg.Logs.MaxAgeDays,
		MaxBackups: cfg.Logs.MaxBackups,
		Compress:   cfg.Logs.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return nil
}

// registerWellKnownParameters pre-registers every id the core's
// stateful services rely on existing, per spec.md §6's description of
// the ParameterRegistry as an external collaborator the core expects
// to be pre-populated.
func registerWellKnownParameters(reg *registry.InMemory) {
	reg.Register(registry.LFTTransactionID, registry.Value{Type: registry.U32})
	reg.Register(registry.LFTSequenceNum, registry.Value{Type: registry.U32})
	reg.Register(registry.LFTCount, registry.Value{Type: registry.U32})
	reg.Register(registry.LFTUplinkSize, registry.Value{Type: registry.U32})
	reg.Register(registry.LFTDiscontinuityCounter, registry.Value{Type: registry.U32})
	reg.Register(registry.LFTSizeStored, registry.Value{Type: registry.U32})
	reg.Register(registry.ValidTCScheduleList, registry.Value{Type: registry.U8})
	reg.Register(registry.TCScheduleActive, registry.Value{Type: registry.U8, U: 1})
	reg.Register(registry.ScheduledTCExecutionMargin, registry.Value{Type: registry.U32, U: schedule.ExecMarginSeconds})
	reg.Register(registry.MemoryHealthChecksIsSet, registry.Value{Type: registry.U8})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	mem, err := store.NewFileStore(cfg.StorageDir)
	if err != nil {
		return err
	}
	params := registry.NewInMemory()
	registerWellKnownParameters(params)

	clk := clock.System{}
	counters := ccsds.NewCounters()
	opts := ccsds.DefaultOptions()

	dbg := debugserver.New()

	// tmSecondaryHeaderSize is the ECSS TM secondary header's fixed wire
	// size (pusVersion/spare nibble, service, type, counter, destId,
	// epoch seconds, spare — spec.md §4.2's TM secondary header), used to
	// size each composed TM's ecssTotalSize.
	const tmSecondaryHeaderSize = 15

	storeTM := func(tm *ccsds.Message) {
		ecssTotalSize := tmSecondaryHeaderSize + len(tm.Payload())
		data, err := ccsds.Compose(opts, tm, ecssTotalSize, clk.EpochSeconds)
		if err != nil {
			log.Printf("serve: compose TM failed: %v", err)
			return
		}
		if Verbose {
			log.Printf("serve: TM[%d,%d] %d bytes", tm.ServiceType, tm.MessageType, len(data))
		}
		dbg.BroadcastTM(data)
	}

	verifier := verification.New(counters, opts, clk.EpochSeconds, storeTM)
	events := event.New(counters, storeTM, nil)
	fm := function.New(counters)
	actions := eventaction.New(counters, storeTM, fm, events)
	events.SetBinder(actions)

	hk := housekeeping.New(counters, storeTM, mem, params)
	lpt := largepacket.New(counters, storeTM, mem, params)

	sched := schedule.New(clk, counters, storeTM, mem, params, nil)
	param := parameter.New(params, counters, storeTM)
	testSvc := test.New(counters, storeTM)

	d := dispatch.NewDispatcher()
	d.Register(verifier)
	d.Register(events)
	d.Register(fm)
	d.Register(actions)
	d.Register(hk)
	d.Register(lpt)
	d.Register(sched)
	d.Register(param)
	d.Register(testSvc)

	ctx := &dispatch.Context{
		Clock:        clk,
		Counters:     counters,
		Options:      opts,
		Verification: verifier,
		Events:       events,
		StoreTM:      storeTM,
	}

	dbg.Options = opts
	dbg.Context = ctx
	dbg.Dispatcher = d
	dbg.Schedule = sched
	dbg.Housekeeping = hk
	dbg.Events = events
	dbg.EventAction = actions

	go runTickLoop(clk, cfg, hk, sched, opts, d, ctx)

	log.Printf("serve: listening on %s", cfg.DebugServer.Addr)
	return http.ListenAndServe(cfg.DebugServer.Addr, dbg.Handler())
}

// runTickLoop drives the periodic engines ST[03] and ST[11] depend
// on, standing in for the clock-interrupt task spec.md §6 names only
// by interface. Activities released by ST[11] are fed straight back
// through the dispatcher, matching the original's
// executeScheduledActivity calling directly into the services
// container.
func runTickLoop(clk clock.Clock, cfg *config.Config, hk *housekeeping.Service, sched *schedule.Service, opts ccsds.Options, d *dispatch.Dispatcher, ctx *dispatch.Context) {
	interval := time.Duration(cfg.Schedule.TickIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastHKTick := clk.NowUTC()
	for range ticker.C {
		now := clk.NowUTC()
		hk.ReportPending(now, lastHKTick, uint64(cfg.Schedule.TickIntervalSeconds))
		lastHKTick = now

		sched.Release(now, func(tcBytes []byte) {
			msg, err := ccsds.Parse(opts, tcBytes, true)
			if err != nil {
				log.Printf("serve: scheduled activity failed to parse: %v", err)
				return
			}
			if err := d.Dispatch(ctx, msg); err != nil {
				log.Printf("serve: scheduled activity dispatch failed: %v", err)
			}
		})
	}
}
