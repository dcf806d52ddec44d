// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/stream"
)

// ErrPasswordRequired is returned by encrypt and decrypt when no password is given.
var ErrPasswordRequired = errors.New("cli: a password is required")

// passwordEnv names the variable consulted when --password is not set.
const passwordEnv = "X509_BUILDER_PASSWORD"

// cryptFlags are the flags shared by encrypt and decrypt.
type cryptFlags struct {
	input    string
	output   string
	password string
}

func (f *cryptFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "read from FILE (default: stdin)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write to FILE (default: stdout)")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "envelope password (default: $"+passwordEnv+")")
}

func (f *cryptFlags) secret() ([]byte, error) {
	pw := f.password
	if pw == "" {
		pw = os.Getenv(passwordEnv)
	}
	if pw == "" {
		return nil, ErrPasswordRequired
	}
	return []byte(pw), nil
}

// open returns the input stream and the output stream of a crypt command.
// The returned function closes both.
func (f *cryptFlags) open(cmd *cobra.Command) (io.Reader, io.Writer, func() error, error) {
	var (
		src     io.Reader = cmd.InOrStdin()
		dst     io.Writer = cmd.OutOrStdout()
		closers []io.Closer
	)
	if f.input != "" {
		in, err := os.Open(f.input)
		if err != nil {
			return nil, nil, nil, err
		}
		src = in
		closers = append(closers, in)
	}
	if f.output != "" {
		out, err := os.OpenFile(f.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, nil, nil, err
		}
		dst = out
		closers = append(closers, out)
	}
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}
	return src, dst, closeAll, nil
}

func newEncryptCommand(opts *options) *cobra.Command {
	var (
		flags      cryptFlags
		cipherName string
		armor      bool
	)

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Seal a payload in a password protected CMS envelope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			password, err := flags.secret()
			if err != nil {
				return err
			}
			c, err := crypt.ParseCipher(cipherName)
			if err != nil {
				return err
			}
			src, dst, closeAll, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeAll()) }()

			OperationPerformed = true
			if armor {
				plain, err := io.ReadAll(io.LimitReader(src, opts.maxInput+1))
				if err != nil {
					return err
				}
				if int64(len(plain)) > opts.maxInput {
					return fmt.Errorf("input exceeds %d bytes", opts.maxInput)
				}
				envelope, err := crypt.Default.EncryptBytes(plain, password, c)
				if err != nil {
					return err
				}
				if _, err := dst.Write(crypt.ArmorPEM(envelope)); err != nil {
					return err
				}
			} else if err := crypt.Default.Encrypt(cmd.Context(), dst, src, password, c); err != nil {
				return err
			}
			OperationPerformedSuccessfully = true
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&cipherName, "cipher", "c", crypt.AES256CBC.String(),
		"content cipher: aes128-cbc, aes256-cbc or aes256-gcm")
	cmd.Flags().BoolVarP(&armor, "armor", "a", false, "write the envelope as PEM")
	return cmd
}

// sniffLen is how much of the decrypt input is inspected to tell a binary
// envelope from PEM armor.
const sniffLen = 32

// errNotEnvelope is returned by decrypt for input that holds no envelope.
var errNotEnvelope = errors.New("input is not a password envelope")

// envelopeReader returns the envelope carried by src. Binary envelopes are
// streamed as they are; PEM armor has to be decoded whole and is bounded by
// maxInput.
func envelopeReader(src io.Reader, maxInput int64) (io.Reader, error) {
	br := bufio.NewReader(src)
	head, _ := br.Peek(sniffLen)
	if crypt.IsEnvelope(head) {
		return br, nil
	}
	if !bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte("-----BEGIN")) {
		return nil, errNotEnvelope
	}

	data, err := io.ReadAll(io.LimitReader(br, maxInput+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxInput {
		return nil, fmt.Errorf("input exceeds %d bytes", maxInput)
	}
	envelope, ok := crypt.Dearmor(data)
	if !ok {
		return nil, errNotEnvelope
	}
	return bytes.NewReader(envelope), nil
}

func newDecryptCommand(opts *options) *cobra.Command {
	var flags cryptFlags

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Open a password protected CMS envelope, binary or PEM armored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			password, err := flags.secret()
			if err != nil {
				return err
			}
			src, dst, closeAll, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeAll()) }()

			envelope, err := envelopeReader(src, opts.maxInput)
			if err != nil {
				return err
			}

			// Plaintext is held back until the padding or tag has been checked.
			cache := stream.NewCache(stream.WithThreshold(opts.cacheThreshold))
			defer cache.Close()

			OperationPerformed = true
			if err := crypt.Default.Decrypt(cmd.Context(), cache, envelope, password); err != nil {
				return err
			}
			if err := cache.Rewind(); err != nil {
				return err
			}
			if _, err := io.Copy(dst, cache); err != nil {
				return err
			}
			OperationPerformedSuccessfully = true
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
