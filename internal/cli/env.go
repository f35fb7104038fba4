// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyconv.
//
// go-keyconv is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "keyconv"

// applyEnvironment sets every flag the user did not pass from its
// environment variable. Global flags read KEYCONV_<FLAG>; command flags
// read KEYCONV_<COMMAND>_<FLAG>. Dashes become underscores.
func applyEnvironment(cmd *cobra.Command) error {
	var errs []string
	apply := func(prefix string, flags *pflag.FlagSet) {
		v := viper.New()
		v.SetEnvPrefix(prefix)
		v.AutomaticEnv()
		flags.VisitAll(func(f *pflag.Flag) {
			name := strings.ReplaceAll(f.Name, "-", "_")
			if f.Changed || !v.IsSet(name) {
				return
			}
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(name))); err != nil {
				errs = append(errs, err.Error())
			}
		})
	}

	apply(envPrefix, cmd.InheritedFlags())
	if cmd.HasParent() {
		apply(fmt.Sprintf("%s_%s", envPrefix, cmd.Name()), cmd.LocalFlags())
	} else {
		apply(envPrefix, cmd.LocalFlags())
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("error mapping environment variables to command flags: %s", strings.Join(errs, "; "))
}
