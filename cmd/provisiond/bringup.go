package main

import (
	"context"
	"net"

	"github.com/pion/logging"

	"github.com/oddlama/matter-provision/pkg/discovery"
	"github.com/oddlama/matter-provision/pkg/stack"
)

// The types below are bring-up stand-ins for the station driver and
// the protocol engine, which attach through the stack contracts.

// loggingWifiClient pretends every association succeeds. It lets the
// full provisioning flow run on hosts without a managed WiFi radio.
type loggingWifiClient struct {
	log logging.LeveledLogger
}

func (c *loggingWifiClient) Connect(ctx context.Context, ssid, password string) error {
	c.log.Infof("associating with %q", ssid)
	return nil
}

// tcpOOB accepts a single commissioner connection over plain TCP and
// frames it as a session connection. While it waits it publishes the
// commissionable DNS-SD service so commissioners can find the device.
type tcpOOB struct {
	addr           string
	commissionable *discovery.CommissionableAdvertiser
	log            logging.LeveledLogger
}

func (o *tcpOOB) AdvertiseAndAccept(ctx context.Context, deviceName, onboardingPayload string) (stack.Conn, error) {
	ln, err := net.Listen("tcp", o.addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	if o.commissionable != nil {
		advCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := o.commissionable.Advertise(advCtx); err != nil && advCtx.Err() == nil {
				o.log.Warnf("commissionable advertising failed: %v", err)
			}
		}()
	}

	o.log.Infof("%s waiting for commissioner on %s (%s)", deviceName, o.addr, onboardingPayload)

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return stack.NewStreamConn(conn), nil
}

// idleResponder holds the responder slot open until the protocol
// engine lands. Sessions stay up, frames flow through the transport.
type idleResponder struct{}

func (idleResponder) Run(ctx context.Context, conn stack.Conn, buf []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

// echoTransport reflects every frame back to the sender, enough to
// probe a session end to end.
type echoTransport struct {
	log logging.LeveledLogger
}

func (t *echoTransport) Run(ctx context.Context, conn stack.Conn, buf []byte) error {
	for {
		frame, err := conn.Recv(ctx)
		if err != nil {
			return err
		}
		t.log.Debugf("echoing %d byte frame", len(frame))
		if err := conn.Send(ctx, frame); err != nil {
			return err
		}
	}
}
