// Package remote drives key-authenticated SSH sessions: parsing a
// connection spec, probing reachability and PATH membership, and
// executing a shell-quoted command line on the far end.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/kevinburke/ssh_config"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/dreadnode/robopages-go/internal/obs"
)

// ErrBadRemoteSpec is returned when a connection string fails to parse.
var ErrBadRemoteSpec = errors.New("invalid remote spec")

// DefaultPort is used when a spec omits an explicit port.
const DefaultPort = 22

// Remote is a parsed connection target plus the credentials to reach it.
type Remote struct {
	User         string
	Host         string
	Port         int
	KeyPath      string
	Passphrase   string
	clientConfig *ssh.ClientConfig
}

// Parse decodes a "[user@]host[:port]" spec, defaulting user to the local
// user and port to 22. keyPath must name an existing private key file;
// passphrase may be empty for unencrypted keys.
func Parse(spec, keyPath, passphrase string) (*Remote, error) {
	if spec == "" {
		return nil, fmt.Errorf("%w: empty spec", ErrBadRemoteSpec)
	}

	user := currentUser()
	hostPort := spec
	hadUser := false

	if idx := strings.Index(spec, "@"); idx >= 0 {
		if strings.LastIndex(spec, "@") != idx {
			return nil, fmt.Errorf("%w: multiple '@' in %q", ErrBadRemoteSpec, spec)
		}
		user = spec[:idx]
		hostPort = spec[idx+1:]
		hadUser = true
		if user == "" {
			return nil, fmt.Errorf("%w: empty user in %q", ErrBadRemoteSpec, spec)
		}
	}

	host := hostPort
	port := DefaultPort
	hadPort := false

	if idx := strings.Index(hostPort, ":"); idx >= 0 {
		if strings.LastIndex(hostPort, ":") != idx {
			return nil, fmt.Errorf("%w: multiple ':' in %q", ErrBadRemoteSpec, spec)
		}
		host = hostPort[:idx]
		portStr := hostPort[idx+1:]
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("%w: non-numeric port %q", ErrBadRemoteSpec, portStr)
		}
		port = p
		hadPort = true
	}

	if host == "" {
		return nil, fmt.Errorf("%w: empty host in %q", ErrBadRemoteSpec, spec)
	}

	// The host token may be an alias in ~/.ssh/config: its HostName
	// replaces the host, and its User and Port fill in only what the
	// literal spec left out (its IdentityFile is used below only when
	// keyPath does not exist), so `robopages run --remote-spec build-box ...`
	// reaches the same machine `ssh build-box` would.
	alias := ssh_config.Get(host, "HostName")
	if alias != "" {
		host = alias
	}
	if !hadUser {
		if cfgUser := ssh_config.Get(hostPort, "User"); cfgUser != "" {
			user = cfgUser
		}
	}
	if !hadPort {
		if cfgPort := ssh_config.Get(hostPort, "Port"); cfgPort != "" {
			if p, err := strconv.Atoi(cfgPort); err == nil {
				port = p
			}
		}
	}

	expandedKeyPath, err := homedir.Expand(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRemoteSpec, err)
	}
	if _, err := os.Stat(expandedKeyPath); err != nil {
		if cfgIdentity := ssh_config.Get(hostPort, "IdentityFile"); cfgIdentity != "" {
			if altPath, expErr := homedir.Expand(cfgIdentity); expErr == nil {
				if _, statErr := os.Stat(altPath); statErr == nil {
					expandedKeyPath = altPath
				}
			}
		}
	}
	if _, err := os.Stat(expandedKeyPath); err != nil {
		return nil, fmt.Errorf("%w: keyfile %q does not exist", ErrBadRemoteSpec, expandedKeyPath)
	}

	cfg, err := buildClientConfig(user, expandedKeyPath, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRemoteSpec, err)
	}

	return &Remote{
		User:         user,
		Host:         host,
		Port:         port,
		KeyPath:      expandedKeyPath,
		Passphrase:   passphrase,
		clientConfig: cfg,
	}, nil
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("LOGNAME")
}

func buildClientConfig(user, keyPath, passphrase string) (*ssh.ClientConfig, error) {
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key file %s: %w", keyPath, err)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing private key %s: %w", keyPath, err)
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}

func (r *Remote) addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (r *Remote) dial() (*ssh.Client, error) {
	return ssh.Dial("tcp", r.addr(), r.clientConfig)
}

func (r *Remote) runSession(line string) (string, error) {
	client, err := r.dial()
	if err != nil {
		return "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	runErr := session.Run(line)
	return joinOutput(stdout.String(), stderr.String(), runErr)
}

// Test opens a session and runs `echo robopages`, confirming the remote
// shell is reachable and behaves as expected.
func (r *Remote) Test(ctx context.Context) error {
	out, err := r.runWithContext(ctx, "echo robopages")
	if err != nil {
		return err
	}
	if out != "robopages\n" {
		return fmt.Errorf("unexpected probe output: %q", out)
	}
	return nil
}

// InPath reports whether binary can be located on the remote shell's PATH.
func (r *Remote) InPath(ctx context.Context, binary string) (bool, error) {
	out, err := r.runWithContext(ctx, "command -v "+shellQuote(binary))
	if err != nil {
		return false, err
	}
	// joinOutput folds a non-zero exit into the output instead of an error,
	// so a failed lookup shows up as the "EXIT CODE: <n>" prefix.
	return !strings.HasPrefix(out, "EXIT CODE: "), nil
}

// Execute builds a shell-quoted command line from binary and args
// (optionally prefixed with sudo), runs it remotely, and joins output using
// the same rules as a local command's execution.
func (r *Remote) Execute(ctx context.Context, sudo bool, binary string, args []string) (string, error) {
	ctx, span := obs.StartSpan(ctx, "remote.Execute")
	defer span.End()

	var parts []string
	if sudo {
		parts = append(parts, "sudo")
	}
	parts = append(parts, shellQuote(binary))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	line := strings.Join(parts, " ")
	return r.runWithContext(ctx, line)
}

func (r *Remote) runWithContext(ctx context.Context, line string) (string, error) {
	type result struct {
		out string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		out, err := r.runSession(line)
		ch <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.out, res.err
	}
}

// joinOutput applies the same joining rule as command.Command.Execute:
// "EXIT CODE: <n>" (failure only), stdout, "ERROR: "-prefixed stderr
// (failure only), each present part separated by a single newline.
func joinOutput(stdout, stderr string, runErr error) (string, error) {
	var parts []string
	failed := false
	exitCode := 0

	if runErr != nil {
		var exitErr *ssh.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitStatus()
			failed = true
		} else {
			return "", runErr
		}
	}

	if failed {
		parts = append(parts, fmt.Sprintf("EXIT CODE: %d", exitCode))
	}
	if stdout != "" {
		parts = append(parts, stdout)
	}
	if stderr != "" {
		if failed {
			parts = append(parts, "ERROR: "+stderr)
		} else {
			parts = append(parts, stderr)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// shellQuote escapes a single token using POSIX single-quoting: wrap in
// single quotes, and replace any embedded single quote with '\'' (close
// quote, escaped quote, reopen quote).
func shellQuote(tok string) string {
	if tok == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(tok, "'", `'\''`) + "'"
}
