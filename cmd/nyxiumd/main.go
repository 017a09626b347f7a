package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/nyxium-chain/nyxium/pkg/config"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/committee"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/key"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/message"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/ratification"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/registry"
	"github.com/nyxium-chain/nyxium/pkg/core/consensus/validation"
)

func main() {
	app := cli.NewApp()
	app.Name = "nyxiumd"
	app.Usage = "Nyxium consensus core demo CLI"

	app.Commands = []cli.Command{
		runIterationCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a node TOML configuration file",
		Value: "",
	}

	committeeSizeFlag = cli.IntFlag{
		Name:  "committee-size",
		Usage: "number of simulated committee members for the demo iteration",
		Value: 9,
	}

	runIterationCMD = cli.Command{
		Name:   "run-iteration",
		Usage:  "simulate a single Validation/Ratification iteration in-process and print the resulting certificate",
		Action: runIterationAction,
		Flags: []cli.Flag{
			configFlag,
			committeeSizeFlag,
		},
	}
)

func runIterationAction(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lvl, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	n := ctx.Int(committeeSizeFlag.Name)

	keys := make([]key.Keys, n)
	members := make([]committee.Member, n)
	for i := 0; i < n; i++ {
		k, err := key.NewRandKeys()
		if err != nil {
			return err
		}
		keys[i] = k
		members[i] = committee.Member{PubKey: k.BLSPubKeyBytes, Weight: 1}
	}
	c := committee.New(members, nil, false)

	committees := committee.NewRoundCommittees()
	committees.Put(0, committee.IterationCommittees{ValidationCommittee: c, RatificationCommittee: c})

	reg := registry.New()
	vh := validation.New(reg)
	rh := ratification.New(reg)
	vh.Reset(0)
	rh.Reset(0)

	hash := message.BlockHash{}
	copy(hash[:], []byte("demo-candidate-block"))
	vote := message.NewValidVote(hash)

	validationHdr := message.Header{Round: 1, Iteration: 0, Topic: message.TopicValidation}
	threshold := c.Threshold()

	var ru consensus.RoundUpdate
	var vr message.ValidationResult
	var i uint64
	for w := uint64(0); w < threshold; w++ {
		sig, err := message.Sign(keys[i], validationHdr, vote)
		if err != nil {
			return err
		}
		msg := message.Message{Kind: message.KindValidation, Validation: &message.Validation{
			Header:   validationHdr,
			Vote:     vote,
			SignInfo: message.SignInfo{Signer: keys[i].BLSPubKeyBytes, Signature: sig},
		}}

		if err := vh.Verify(msg, 0, committees); err != nil {
			return err
		}

		out, err := vh.Collect(msg, ru, c)
		if err != nil {
			return err
		}
		if out.Ready {
			vr = *out.Message.ValidationResult
		}
		i++
	}

	log.WithField("quorum", vr.Quorum.String()).Info("validation quorum reached")

	i = 0
	for w := uint64(0); w < threshold; w++ {
		ratHdr := message.Header{Round: 1, Iteration: 0, SignerPubKey: keys[i].BLSPubKeyBytes, Topic: message.TopicRatification}
		sig, err := message.Sign(keys[i], ratHdr, vote)
		if err != nil {
			return err
		}
		msg := message.Message{Kind: message.KindRatification, Ratification: &message.Ratification{
			Header:           ratHdr,
			Signature:        sig,
			ValidationResult: vr,
		}}

		if err := rh.Verify(msg, 0, committees); err != nil {
			return err
		}

		out, err := rh.Collect(msg, ru, c)
		if err != nil {
			return err
		}
		if out.Ready {
			q := out.Message.Quorum
			log.WithFields(log.Fields{
				"round":     q.Header.Round,
				"iteration": q.Header.Iteration,
			}).Info("certificate complete")
			fmt.Printf("quorum certificate for iteration %d: %s\n", q.Header.Iteration, vr.Quorum.String())
		}
		i++
	}

	return nil
}
