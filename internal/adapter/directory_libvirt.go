// Copyright 2024 Alexandre Mahdhaoui
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

package adapter

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"net/url"
	"strings"

	"libvirt.org/go/libvirt"
	"libvirt.org/go/libvirtxml"

	"github.com/alexandremahdhaoui/vmpatch/internal/types"
)

const libosinfoNamespace = "http://libosinfo.org/xmlns/libvirt/domain/1.0"

var (
	errLibvirtConnect     = errors.New("connecting to libvirt")
	errLibvirtListDomains = errors.New("listing libvirt domains")
	errLibvirtDomain      = errors.New("reading libvirt domain")
	errLibvirtSession     = errors.New("libvirt session interrupted")
	errLibvirtURI         = errors.New("invalid libvirt uri")
)

// libvirtUnsafeParams are URI parameters that make libvirt run a program or open a local file on the vmpatch host.
var libvirtUnsafeParams = []string{"command", "netcat", "socket", "keyfile"}

// ---------------------------------------------------- SESSION ----------------------------------------------------- //

// libvirtDomain is the subset of *libvirt.Domain read by the inventory.
type libvirtDomain interface {
	GetName() (string, error)
	GetState() (libvirt.DomainState, int, error)
	GetXMLDesc(flags libvirt.DomainXMLFlags) (string, error)
	ListAllInterfaceAddresses(src libvirt.DomainInterfaceAddressesSource) ([]libvirt.DomainInterface, error)
	Free() error
}

type libvirtSession interface {
	Domains() ([]libvirtDomain, error)
	Close() error
}

type libvirtConnector func(uri, username, password string) (libvirtSession, error)

// NewLibvirtInventory returns an Inventory backed by a libvirt daemon. The endpoint URL is a libvirt connection URI.
func NewLibvirtInventory() Inventory {
	return &libvirtInventory{connect: connectLibvirt}
}

type libvirtInventory struct {
	connect libvirtConnector
}

// List returns once ctx is done even when libvirt is still blocked in a call. The session is then released in the
// background as soon as libvirt returns.
func (l *libvirtInventory) List(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error) {
	type result struct {
		records []types.VMRecord
		err     error
	}

	done := make(chan result, 1)

	go func() {
		records, err := l.list(ctx, endpoint)
		done <- result{records: records, err: err}
	}()

	select {
	case r := <-done:
		return r.records, r.err
	case <-ctx.Done():
		slog.WarnContext(ctx, "libvirt session interrupted", "endpoint", endpoint.String(), "err", ctx.Err().Error())
		return nil, errors.Join(ctx.Err(), errLibvirtSession, interruptedKind(ctx))
	}
}

func (l *libvirtInventory) list(ctx context.Context, endpoint types.HypervisorEndpoint) ([]types.VMRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(err, errLibvirtSession, interruptedKind(ctx))
	}

	sess, err := l.connect(endpoint.URL, endpoint.Username, endpoint.Password)
	if err != nil {
		return nil, classifyLibvirtConnect(err)
	}

	defer func() {
		if err := sess.Close(); err != nil {
			slog.WarnContext(ctx, "cannot close libvirt connection", "endpoint", endpoint.String(), "err", err.Error())
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, errors.Join(err, errLibvirtSession, interruptedKind(ctx))
	}

	domains, err := sess.Domains()
	if err != nil {
		return nil, errors.Join(err, errLibvirtListDomains, types.ErrInventory)
	}

	// every domain must be freed, including the ones left unread after an error.
	defer func() {
		for _, d := range domains {
			_ = d.Free()
		}
	}()

	out := make([]types.VMRecord, 0, len(domains))

	for _, d := range domains {
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(err, errLibvirtListDomains, interruptedKind(ctx))
		}

		record, err := toLibvirtVMRecord(ctx, d)
		if err != nil {
			return nil, errors.Join(err, errLibvirtDomain, types.ErrInventory)
		}

		out = append(out, record)
	}

	return out, nil
}

func interruptedKind(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return types.ErrTimeout
	}

	return types.ErrCanceled
}

func toLibvirtVMRecord(ctx context.Context, d libvirtDomain) (types.VMRecord, error) {
	name, err := d.GetName()
	if err != nil {
		return types.VMRecord{}, err
	}

	state, _, err := d.GetState()
	if err != nil {
		return types.VMRecord{}, fmt.Errorf("domain %q: %w", name, err)
	}

	out := types.VMRecord{
		Name:       name,
		PowerState: toLibvirtPowerState(state),
	}

	if desc, err := d.GetXMLDesc(0); err != nil {
		slog.DebugContext(ctx, "cannot read domain xml", "domain", name, "err", err.Error())
	} else {
		out.GuestOS = guestOSLabel(desc)
	}

	if out.PowerState == types.PowerStateOn {
		out.Address = domainAddress(ctx, name, d)
	}

	return out, nil
}

func toLibvirtPowerState(s libvirt.DomainState) types.PowerState {
	switch s {
	case libvirt.DOMAIN_RUNNING:
		return types.PowerStateOn
	case libvirt.DOMAIN_PAUSED, libvirt.DOMAIN_PMSUSPENDED:
		return types.PowerStateSuspended
	case libvirt.DOMAIN_SHUTOFF, libvirt.DOMAIN_SHUTDOWN, libvirt.DOMAIN_CRASHED:
		return types.PowerStateOff
	default:
		return types.PowerStateUnknown
	}
}

// domainAddress returns the first non-loopback IPv4 address reported by the guest agent, else the first IPv6 one.
// DHCP leases of libvirt-managed networks are used when the agent does not answer, then the ARP table of the host.
func domainAddress(ctx context.Context, name string, d libvirtDomain) string {
	for _, src := range []libvirt.DomainInterfaceAddressesSource{
		libvirt.DOMAIN_INTERFACE_ADDRESSES_SRC_AGENT,
		libvirt.DOMAIN_INTERFACE_ADDRESSES_SRC_LEASE,
		libvirt.DOMAIN_INTERFACE_ADDRESSES_SRC_ARP,
	} {
		ifaces, err := d.ListAllInterfaceAddresses(src)
		if err != nil {
			slog.DebugContext(ctx, "cannot list interface addresses", "domain", name, "source", src, "err", err.Error())
			continue
		}

		if addr := pickAddress(ifaces); addr != "" {
			return addr
		}
	}

	return ""
}

func pickAddress(ifaces []libvirt.DomainInterface) string {
	var v6 string

	for _, iface := range ifaces {
		for _, a := range iface.Addrs {
			addr, err := netip.ParseAddr(strings.Split(a.Addr, "/")[0])
			if err != nil || addr.IsLoopback() || addr.IsUnspecified() {
				continue
			}

			if addr.Is4() {
				return addr.String()
			}

			if v6 == "" && !addr.IsLinkLocalUnicast() {
				v6 = addr.String()
			}
		}
	}

	return v6
}

// ------------------------------------------------- GUEST OS LABEL ------------------------------------------------- //

// guestOSLabel derives a label from the libosinfo metadata written by virt-install, e.g.
// "http://ubuntu.com/ubuntu/22.04" becomes "Ubuntu 22.04". The OS type ("hvm") is returned when the domain carries
// no such metadata.
func guestOSLabel(domainXML string) string {
	dom := &libvirtxml.Domain{}
	if err := dom.Unmarshal(domainXML); err != nil {
		return ""
	}

	if dom.Metadata != nil {
		if label := osinfoLabel(libosinfoID(dom.Metadata.XML)); label != "" {
			return label
		}
	}

	if dom.OS != nil && dom.OS.Type != nil {
		return dom.OS.Type.Type
	}

	return ""
}

// libosinfoID returns the id attribute of the <libosinfo:os> element found in the domain metadata.
func libosinfoID(metadata string) string {
	dec := xml.NewDecoder(strings.NewReader(metadata))

	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}

		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Space != libosinfoNamespace || el.Name.Local != "os" {
			continue
		}

		for _, attr := range el.Attr {
			if attr.Name.Local == "id" {
				return attr.Value
			}
		}
	}
}

func osinfoLabel(id string) string {
	if id == "" {
		return ""
	}

	u, err := url.Parse(id)
	if err != nil {
		return ""
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}

	parts[0] = strings.ToUpper(parts[0][:1]) + parts[0][1:]

	return strings.Join(parts, " ")
}

// ---------------------------------------------------- CONNECT ----------------------------------------------------- //

// ValidateLibvirtURI rejects connection URIs that would make libvirt spawn a local program or use local files chosen
// by the caller: the ext transport and the command, netcat, socket and keyfile parameters.
func ValidateLibvirtURI(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return errors.Join(err, errLibvirtURI, types.ErrConfiguration)
	}

	if _, transport, ok := strings.Cut(u.Scheme, "+"); ok && strings.EqualFold(transport, "ext") {
		return errors.Join(fmt.Errorf("%w: ext transport is not allowed", errLibvirtURI), types.ErrConfiguration)
	}

	for key := range u.Query() {
		for _, unsafe := range libvirtUnsafeParams {
			if strings.EqualFold(key, unsafe) {
				return errors.Join(
					fmt.Errorf("%w: parameter %q is not allowed", errLibvirtURI, key),
					types.ErrConfiguration,
				)
			}
		}
	}

	return nil
}

type libvirtConn struct {
	conn *libvirt.Connect
}

func connectLibvirt(uri, username, password string) (libvirtSession, error) {
	auth := &libvirt.ConnectAuth{
		CredType: []libvirt.ConnectCredentialType{
			libvirt.CRED_AUTHNAME,
			libvirt.CRED_PASSPHRASE,
		},
		Callback: func(creds []*libvirt.ConnectCredential) {
			for _, cred := range creds {
				switch cred.Type {
				case libvirt.CRED_AUTHNAME:
					cred.Result = username
					cred.ResultLen = len(username)
				case libvirt.CRED_PASSPHRASE:
					cred.Result = password
					cred.ResultLen = len(password)
				}
			}
		},
	}

	conn, err := libvirt.NewConnectWithAuth(uri, auth, 0)
	if err != nil {
		return nil, err
	}

	return &libvirtConn{conn: conn}, nil
}

func (c *libvirtConn) Domains() ([]libvirtDomain, error) {
	domains, err := c.conn.ListAllDomains(0)
	if err != nil {
		return nil, err
	}

	out := make([]libvirtDomain, 0, len(domains))
	for i := range domains {
		out = append(out, &domains[i])
	}

	return out, nil
}

func (c *libvirtConn) Close() error {
	_, err := c.conn.Close()
	return err
}

func classifyLibvirtConnect(err error) error {
	var lverr libvirt.Error
	if errors.As(err, &lverr) {
		switch lverr.Code {
		case libvirt.ERR_AUTH_FAILED, libvirt.ERR_AUTH_CANCELLED, libvirt.ERR_AUTH_UNAVAILABLE:
			return errors.Join(err, errLibvirtConnect, types.ErrAuth)
		case libvirt.ERR_INVALID_ARG, libvirt.ERR_NO_SUPPORT, libvirt.ERR_NO_CONNECT:
			return errors.Join(err, errLibvirtConnect, types.ErrConfiguration)
		}
	}

	return errors.Join(err, errLibvirtConnect, types.ErrEndpointUnreachable)
}
