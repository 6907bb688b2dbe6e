// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/rearcquest/datasync/mirror"
	"github.com/spf13/cobra"
)

// MirrorMain is wrapped by NewMirrorCommand and only exported for testing
// purposes.
var MirrorMain *mirror.Main

// NewMirrorCommand returns a new cobra command wrapping MirrorMain.
func NewMirrorCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	MirrorMain = mirror.NewMain()
	com := &cobra.Command{
		Use:   "mirror",
		Short: "mirror - copy new and changed files from a BLS directory listing",
		Long: `Lists an HTML directory index, compares each file's MD5 with the
stored object's ETag, and uploads only the files that are new or
have changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return MirrorMain.Run()
		},
	}
	err := commandeer.Flags(com.Flags(), MirrorMain)
	if err != nil {
		panic(err)
	}
	return com
}

func init() {
	subcommandFns["mirror"] = NewMirrorCommand
}
