package cmd

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bugVanisher/svvalidate/common/errs"
	"github.com/bugVanisher/svvalidate/media/gop"
	"github.com/bugVanisher/svvalidate/media/nalu"
	"github.com/bugVanisher/svvalidate/media/verifier"
	"github.com/bugVanisher/svvalidate/session"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a signed NAL unit stream file",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		data, err := os.ReadFile(vld.inFile)
		if err != nil {
			return errs.Wrapf(err, "read stream file %s", vld.inFile)
		}

		codec := nalu.H264
		if vld.h265 {
			codec = nalu.H265
		}

		v := verifier.Verifier(verifier.FixedVerifier{OK: true})
		s := session.New(codec, v)
		if vld.frameLevel {
			s.SetAuthenticityLevel(gop.LevelFrame)
		}

		nalus := nalu.SplitAnnexB(data)
		log.Info().Int("nalus", len(nalus)).Str("file", vld.inFile).Msg("validating stream")

		enc := jsoniter.ConfigCompatibleWithStandardLibrary
		for _, n := range nalus {
			rep, err := s.AddNaluAndAuthenticate(n)
			if err != nil {
				return err
			}
			if rep == nil {
				continue
			}
			out, err := enc.MarshalToString(rep)
			if err != nil {
				return err
			}
			cmd.Println(out)
		}

		log.Info().Str("summary", s.Counters().String()).Msg("done")
		return nil
	},
}

type validateArgs struct {
	inFile     string
	h265       bool
	frameLevel bool
}

var vld validateArgs

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&vld.inFile, "file", "f", "", "NAL unit stream file (Annex-B)")
	validateCmd.MarkFlagRequired("file")
	validateCmd.Flags().BoolVar(&vld.h265, "h265", false, "parse as H.265 instead of H.264")
	validateCmd.Flags().BoolVar(&vld.frameLevel, "frame-level", false, "authenticate at FRAME granularity instead of GOP")
}
