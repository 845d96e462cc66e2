package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/leandrodaf/synthctl/sdk/midi"
	"github.com/leandrodaf/synthctl/sdk/synth"
)

// session holds what one command invocation shares: options carrying a
// single logger, the transport and the profile repository.
type session struct {
	out        io.Writer
	logger     contracts.Logger
	opts       []contracts.Option
	dir        string
	outIndex   int
	inIndex    int
	transport  contracts.Transport
	repository *synth.Repository
}

func newSession() (*session, error) {
	level, ok := contracts.ParseLogLevel(*logLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", *logLevel)
	}
	opts := []contracts.Option{contracts.WithLogLevel(level)}
	if *logFile != "" {
		opts = append(opts, contracts.WithLogFile(*logFile))
	}
	resolved, err := midi.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &session{
		out:    os.Stdout,
		logger: resolved.Logger,
		opts: []contracts.Option{
			contracts.WithLogger(resolved.Logger),
			contracts.WithTransport(*transportName),
		},
		dir:      *configDir,
		outIndex: *outPort,
		inIndex:  *inPort,
	}, nil
}

// Close releases the transport, if one was created.
func (s *session) Close() error {
	if s.transport == nil {
		return nil
	}
	return s.transport.Close()
}

func (s *session) midiTransport() (contracts.Transport, error) {
	if s.transport != nil {
		return s.transport, nil
	}
	t, err := midi.NewTransport(s.opts...)
	if err != nil {
		return nil, err
	}
	s.transport = t
	return t, nil
}

func (s *session) profiles() (*synth.Repository, error) {
	if s.repository != nil {
		return s.repository, nil
	}
	dir := s.dir
	if dir == "" {
		var err error
		if dir, err = synth.DefaultDir(); err != nil {
			return nil, err
		}
	}
	repo, err := synth.NewRepository(dir, s.opts...)
	if err != nil {
		return nil, err
	}
	if _, err := repo.LoadAll(); err != nil {
		return nil, err
	}
	s.repository = repo
	return repo, nil
}

func (s *session) profile(name string) (*synth.Profile, error) {
	repo, err := s.profiles()
	if err != nil {
		return nil, err
	}
	p, ok := repo.Get(name)
	if !ok {
		return nil, fmt.Errorf("profile %q not found in %s; available: %s", name, repo.Dir(), strings.Join(repo.List(), ", "))
	}
	return p, nil
}

// withDevice opens the selected output port, and inIndex unless it is
// midi.NoPort, for the duration of fn.
func (s *session) withDevice(inIndex int, fn func(*midi.Device) error) error {
	t, err := s.midiTransport()
	if err != nil {
		return err
	}
	return midi.WithDevice(t, s.outIndex, inIndex, fn, s.opts...)
}

// withController binds the named profile to an open device for fn.
func (s *session) withController(profileName string, fn func(*synth.Controller, *midi.Device) error) error {
	p, err := s.profile(profileName)
	if err != nil {
		return err
	}
	return s.withDevice(s.inIndex, func(d *midi.Device) error {
		c, err := synth.NewController(d, p, s.opts...)
		if err != nil {
			return err
		}
		return fn(c, d)
	})
}
