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
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyxsat/pusd/ccsds"
)

var (
	injectService uint8
	injectType    uint8
	injectAPID    uint16
	injectSource  uint16
	injectPayload string
)

// injectCmd composes a single TC from flags and prints its wire bytes,
// standing in for a ground-segment uplink tool against the codec this
// module implements (debugserver's POST /tc accepts the same hex).
var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Compose a single TC packet and print its hex encoding",
	RunE:  runInject,
}

func init() {
	injectCmd.Flags().Uint8Var(&injectService, "service", 17, "PUS service type")
	injectCmd.Flags().Uint8Var(&injectType, "type", 1, "PUS message type")
	injectCmd.Flags().Uint16Var(&injectAPID, "apid", 1, "application process id")
	injectCmd.Flags().Uint16Var(&injectSource, "source", 0, "TC source id")
	injectCmd.Flags().StringVar(&injectPayload, "payload", "", "hex-encoded application data")
	rootCmd.AddCommand(injectCmd)
}

func runInject(cmd *cobra.Command, args []string) error {
	payload, err := hex.DecodeString(injectPayload)
	if err != nil {
		return fmt.Errorf("inject: invalid --payload hex: %w", err)
	}

	msg := ccsds.NewMessage(ccsds.TC, injectService, injectType, 0)
	msg.ApplicationID = injectAPID
	msg.SourceID = injectSource
	if err := msg.AppendString(payload); err != nil {
		return fmt.Errorf("inject: payload too large: %w", err)
	}
	msg.Finalize(nil)

	opts := ccsds.DefaultOptions()
	data, err := ccsds.Compose(opts, msg, 5+len(payload), nil)
	if err != nil {
		return fmt.Errorf("inject: compose failed: %w", err)
	}

	fmt.Println(hex.EncodeToString(data))
	return nil
}
