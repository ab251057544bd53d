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

// codecCmd parses a hex-encoded packet and prints its decoded header
// fields, a debugging aid for whatever a TC/TM byte dump was captured
// off the wire.
var codecCmd = &cobra.Command{
	Use:   "codec <hex>",
	Short: "Parse a hex-encoded CCSDS/PUS packet and print its header fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runCodec,
}

func init() {
	rootCmd.AddCommand(codecCmd)
}

func runCodec(cmd *cobra.Command, args []string) error {
	data, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("codec: invalid hex: %w", err)
	}

	opts := ccsds.DefaultOptions()
	msg, err := ccsds.Parse(opts, data, true)
	if err != nil {
		return fmt.Errorf("codec: parse failed: %w", err)
	}

	kind := "TM"
	if msg.PacketType == ccsds.TC {
		kind = "TC"
	}
	fmt.Printf("type=%s service=%d messageType=%d apid=%d seqCount=%d payloadLen=%d\n",
		kind, msg.ServiceType, msg.MessageType, msg.ApplicationID, msg.SequenceCount, msg.PayloadLen())

	if opts.CRCEnabled {
		fmt.Printf("crcValid=%v\n", ccsds.VerifyCRC(data))
	}
	return nil
}
