package server

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/dm-vev/adamant/server/conn"
	"github.com/dm-vev/adamant/server/credentials"
	"github.com/dm-vev/adamant/server/sector"
	"github.com/dm-vev/adamant/server/wire"
)

// Sector is a runnable sector: the shared chunk directory, its compute
// pool, the tick loop, the credential-notification listener, and the
// connection accept loop. Construct one with Config.New, then call Run.
type Sector struct {
	conf   Config
	shared *sector.SharedSector
	pool   *sector.Pool
	ids    *sector.IDAllocator
	creds  *credentials.Store

	wg   sync.WaitGroup
	done chan struct{}
}

// Run starts the credential listener, the tick loop, and the accept loop on
// every configured listener. It blocks until ctx is cancelled, then closes
// every listener and waits for in-flight connections to finish.
func (s *Sector) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.conf.DB != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			channel := "sector_" + s.conf.Name
			if err := credentials.Listen(ctx, s.conf.DB, channel, s.creds, s.conf.Log); err != nil && ctx.Err() == nil {
				s.conf.Log.Error("credential listener stopped", "error", err)
			}
		}()
	}

	tick := sector.NewTicker(s.shared, s.pool, s.conf.Physics, s.conf.Log, s.ids)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		tick.Run(ctx.Done())
	}()

	for _, l := range s.conf.Listeners {
		l := l
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.acceptLoop(ctx, l)
		}()
	}

	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	<-ctx.Done()
	for _, l := range s.conf.Listeners {
		_ = l.Close()
	}
	s.pool.Close()
	s.wg.Wait()
	return nil
}

// Close stops a Sector started with Run.
func (s *Sector) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Sector) acceptLoop(ctx context.Context, l net.Listener) {
	for {
		nc, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.conf.Log.Warn("accept connection", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.handleConn(ctx, nc); err != nil {
				s.conf.Log.Debug("connection ended", "remote", nc.RemoteAddr(), "error", err)
			}
		}()
	}
}

// handshake reads the one handshake frame, matches it against a pending
// credential, and returns the paired account id and AEAD, per §4.7/§6.
func (s *Sector) handshake(nc net.Conn) (accountID int64, aead cipher.AEAD, err error) {
	ciphertext, err := conn.ReadRawFrame(nc)
	if err != nil {
		return 0, nil, fmt.Errorf("read handshake frame: %w", err)
	}
	accountID, key, ok := s.creds.TryConsume(
		func(k [32]byte) ([]byte, error) { return conn.OpenWithKey(k, ciphertext) },
		func(plaintext []byte) bool { return len(plaintext) == 4 && [4]byte(plaintext) == conn.HandshakePayload },
	)
	if !ok {
		return 0, nil, errors.New("handshake: no pending key matched")
	}
	aead, err = conn.NewAEAD(key)
	if err != nil {
		return 0, nil, fmt.Errorf("handshake: build aead: %w", err)
	}
	return accountID, aead, nil
}

// handleConn performs the handshake, admits a Player into the sector, and
// pumps messages both ways until the connection closes.
func (s *Sector) handleConn(ctx context.Context, nc net.Conn) error {
	defer nc.Close()

	accountID, aead, err := s.handshake(nc)
	if err != nil {
		return err
	}

	var inventory []wire.ItemStack
	if s.conf.DB != nil {
		inventory, err = credentials.FetchInventory(ctx, s.conf.DB, accountID)
		if err != nil {
			s.conf.Log.Warn("fetch inventory", "account", accountID, "error", err)
		}
	}

	chunks := make(chan sector.ChunkSync, 64)
	locations := make(chan sector.Isometry, 8)
	player := sector.NewPlayer(uuid.New(), chunks, locations)

	s.shared.Send(sector.PlayerConnected{
		Player: player,
		Sync: func(voxjects []*sector.Voxject) {
			msg := wire.Sync{Name: s.conf.Name, Inventory: inventory}
			for _, v := range voxjects {
				msg.Voxjects = append(msg.Voxjects, wire.VoxjectInfo{ID: uint64(v.ID), Name: v.Name})
			}
			if err := conn.WriteFrame(nc, aead, marshal(msg)); err != nil {
				s.conf.Log.Warn("send sync frame", "error", err)
			}
		},
	})

	stopWrite := make(chan struct{})
	defer close(stopWrite)

	writeErr := make(chan error, 1)
	go s.writePump(nc, aead, chunks, stopWrite, writeErr)

	readErr := make(chan error, 1)
	go s.readPump(ctx, nc, aead, locations, readErr)

	select {
	case err := <-writeErr:
		return err
	case err := <-readErr:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writePump serializes every ChunkSync arriving on chunks into a
// Clientbound SyncChunk frame, until stop is closed. It never closes
// chunks itself: the channel may still be written to concurrently by a
// compute-pool goroutine mid-broadcast, and closing a channel with an
// in-flight sender would panic.
func (s *Sector) writePump(nc net.Conn, aead cipher.AEAD, chunks <-chan sector.ChunkSync, stop <-chan struct{}, errc chan<- error) {
	for {
		var update sector.ChunkSync
		select {
		case update = <-chunks:
		case <-stop:
			errc <- nil
			return
		}
		msg := wire.SyncChunk{Coords: wire.ChunkCoords{
			Voxject: uint64(update.Coords.Voxject),
			Cell:    [3]int32{update.Coords.Cell[0], update.Coords.Cell[1], update.Coords.Cell[2]},
			Level:   uint8(update.Coords.Level),
		}}
		if update.Data != nil {
			for i, m := range update.Data.Materials {
				msg.Materials[i] = uint8(m)
			}
			msg.Densities = update.Data.Densities
		}
		if err := conn.WriteFrame(nc, aead, marshal(msg)); err != nil {
			errc <- fmt.Errorf("write chunk frame: %w", err)
			return
		}
	}
}

// readPump decodes every Serverbound frame from nc. PlayerLocation updates
// feed the tick thread through locations; GiveTestItem and CreateStructure
// are handled here directly since they don't touch tick-thread-private
// state beyond the one-shot CreateStructureRequest event.
func (s *Sector) readPump(ctx context.Context, nc net.Conn, aead cipher.AEAD, locations chan<- sector.Isometry, errc chan<- error) {
	defer close(locations)
	for {
		plaintext, err := conn.ReadFrame(nc, aead)
		if err != nil {
			errc <- err
			return
		}
		msg, err := wire.DecodeServerbound(plaintext)
		if err != nil {
			errc <- fmt.Errorf("decode serverbound message: %w", err)
			return
		}
		switch m := msg.(type) {
		case wire.PlayerLocation:
			loc := sector.Isometry{
				Voxject:     sector.ID(m.Voxject),
				Translation: [3]float64{float64(m.Translation[0]), float64(m.Translation[1]), float64(m.Translation[2])},
			}
			select {
			case locations <- loc:
			case <-ctx.Done():
				return
			}
		case wire.CreateStructure:
			done := make(chan sector.Structure, 1)
			s.shared.Send(sector.CreateStructureRequest{
				Location: m.Location,
				Blocks:   map[sector.BlockPos]string{{0, 0, 0}: m.Block},
				Reply:    func(st sector.Structure) { done <- st },
			})
			select {
			case st := <-done:
				out := wire.SyncStructure{ID: uint64(st.ID), Location: st.Location, Blocks: make(map[wire.BlockPos]string, len(st.Blocks))}
				for pos, block := range st.Blocks {
					out.Blocks[wire.BlockPos(pos)] = block
				}
				if err := conn.WriteFrame(nc, aead, marshal(out)); err != nil {
					errc <- fmt.Errorf("write structure frame: %w", err)
					return
				}
			case <-ctx.Done():
				return
			}
		case wire.GiveTestItem:
			s.conf.Log.Info("give test item requested", "remote", nc.RemoteAddr())
		}
	}
}

func marshal(m interface{ Marshal(w *wire.Writer) }) []byte {
	var buf writerBuf
	w := wire.NewWriter(&buf)
	m.Marshal(w)
	return buf.b
}

type writerBuf struct{ b []byte }

func (b *writerBuf) Write(p []byte) (int, error) {
	b.b = append(b.b, p...)
	return len(p), nil
}
