package wire

import "fmt"

// ChunkCoords is the wire form of a chunk address: voxject id, integer
// cell, LOD level. It exists independently of sector.Coords so this package
// has no dependency on sector; the connection layer converts between them.
type ChunkCoords struct {
	Voxject uint64
	Cell    [3]int32
	Level   uint8
}

func (c ChunkCoords) marshal(w *Writer) {
	w.ID(c.Voxject)
	w.IVec3(c.Cell)
	w.Uint8(c.Level)
}

func unmarshalChunkCoords(r *Reader) ChunkCoords {
	return ChunkCoords{Voxject: r.ID(), Cell: r.IVec3(), Level: r.Uint8()}
}

// VoxjectInfo names one voxject in a Sync message.
type VoxjectInfo struct {
	ID   uint64
	Name string
}

// ItemStack is one inventory line: an item identifier and a quantity.
type ItemStack struct {
	Item     string
	Quantity int32
}

// BlockPos is a structure-relative block position: three signed 16-bit
// components, per original_source/'s sparse block map convention.
type BlockPos [3]int16

// Clientbound message type tags, written as the first byte of every
// Clientbound frame payload.
const (
	ClientboundSync uint8 = iota
	ClientboundSyncInventory
	ClientboundSyncChunk
	ClientboundRemoveChunk
	ClientboundSyncStructure
)

// Serverbound message type tags.
const (
	ServerboundPlayerLocation uint8 = iota
	ServerboundGiveTestItem
	ServerboundCreateStructure
)

// Sync is the first Clientbound message sent after a successful handshake:
// sector name, voxject list, and the player's inventory snapshot.
type Sync struct {
	Name      string
	Voxjects  []VoxjectInfo
	Inventory []ItemStack
}

// Marshal writes the message, including its leading type tag, to w.
func (m Sync) Marshal(w *Writer) {
	w.Uint8(ClientboundSync)
	w.String(m.Name)
	w.VarUint32(uint32(len(m.Voxjects)))
	for _, v := range m.Voxjects {
		w.ID(v.ID)
		w.String(v.Name)
	}
	w.VarUint32(uint32(len(m.Inventory)))
	for _, it := range m.Inventory {
		w.String(it.Item)
		w.Int32(it.Quantity)
	}
}

func unmarshalSync(r *Reader) Sync {
	var m Sync
	m.Name = r.String()
	voxjects := make([]VoxjectInfo, r.VarUint32())
	for i := range voxjects {
		voxjects[i] = VoxjectInfo{ID: r.ID(), Name: r.String()}
	}
	m.Voxjects = voxjects
	items := make([]ItemStack, r.VarUint32())
	for i := range items {
		items[i] = ItemStack{Item: r.String(), Quantity: r.Int32()}
	}
	m.Inventory = items
	return m
}

// SyncInventory replaces the client's known inventory snapshot.
type SyncInventory struct {
	Items []ItemStack
}

func (m SyncInventory) Marshal(w *Writer) {
	w.Uint8(ClientboundSyncInventory)
	w.VarUint32(uint32(len(m.Items)))
	for _, it := range m.Items {
		w.String(it.Item)
		w.Int32(it.Quantity)
	}
}

func unmarshalSyncInventory(r *Reader) SyncInventory {
	items := make([]ItemStack, r.VarUint32())
	for i := range items {
		items[i] = ItemStack{Item: r.String(), Quantity: r.Int32()}
	}
	return SyncInventory{Items: items}
}

// SyncChunk carries a chunk's full Data: per-cell materials and densities.
type SyncChunk struct {
	Coords    ChunkCoords
	Materials [4096]uint8
	Densities [4096]float32
}

func (m SyncChunk) Marshal(w *Writer) {
	w.Uint8(ClientboundSyncChunk)
	m.Coords.marshal(w)
	w.write(m.Materials[:])
	for _, d := range m.Densities {
		w.Float32(d)
	}
}

func unmarshalSyncChunk(r *Reader) SyncChunk {
	var m SyncChunk
	m.Coords = unmarshalChunkCoords(r)
	mat := make([]byte, 4096)
	r.read(mat)
	copy(m.Materials[:], mat)
	for i := range m.Densities {
		m.Densities[i] = r.Float32()
	}
	return m
}

// RemoveChunk tells the client a chunk is no longer resident.
type RemoveChunk struct {
	Coords ChunkCoords
}

func (m RemoveChunk) Marshal(w *Writer) {
	w.Uint8(ClientboundRemoveChunk)
	m.Coords.marshal(w)
}

func unmarshalRemoveChunk(r *Reader) RemoveChunk {
	return RemoveChunk{Coords: unmarshalChunkCoords(r)}
}

// SyncStructure carries a player-created structure: an id, its location,
// and a sparse map of block positions to block type names.
type SyncStructure struct {
	ID       uint64
	Location [3]int32
	Blocks   map[BlockPos]string
}

func (m SyncStructure) Marshal(w *Writer) {
	w.Uint8(ClientboundSyncStructure)
	w.ID(m.ID)
	w.IVec3(m.Location)
	w.VarUint32(uint32(len(m.Blocks)))
	for pos, block := range m.Blocks {
		w.Int32(int32(pos[0]))
		w.Int32(int32(pos[1]))
		w.Int32(int32(pos[2]))
		w.String(block)
	}
}

func unmarshalSyncStructure(r *Reader) SyncStructure {
	m := SyncStructure{Blocks: make(map[BlockPos]string)}
	m.ID = r.ID()
	m.Location = r.IVec3()
	n := r.VarUint32()
	for i := uint32(0); i < n; i++ {
		pos := BlockPos{int16(r.Int32()), int16(r.Int32()), int16(r.Int32())}
		m.Blocks[pos] = r.String()
	}
	return m
}

// PlayerLocation is the only Serverbound message the tick loop reacts to:
// the player's pose within one voxject (§4.5 step 3). Rotation rides along
// on the wire as a 3x3 matrix but only the translation feeds interest
// computation.
type PlayerLocation struct {
	Voxject     uint64
	Translation [3]float32
	Rotation    [9]float32
}

func (m PlayerLocation) Marshal(w *Writer) {
	w.Uint8(ServerboundPlayerLocation)
	w.ID(m.Voxject)
	w.Vec3(m.Translation)
	for _, f := range m.Rotation {
		w.Float32(f)
	}
}

func unmarshalPlayerLocation(r *Reader) PlayerLocation {
	var m PlayerLocation
	m.Voxject = r.ID()
	m.Translation = r.Vec3()
	for i := range m.Rotation {
		m.Rotation[i] = r.Float32()
	}
	return m
}

// GiveTestItem requests a debug item be added to the player's inventory.
type GiveTestItem struct{}

func (m GiveTestItem) Marshal(w *Writer) { w.Uint8(ServerboundGiveTestItem) }

// CreateStructure requests a new structure be placed at Location.
type CreateStructure struct {
	Location [3]int32
	Block    string
}

func (m CreateStructure) Marshal(w *Writer) {
	w.Uint8(ServerboundCreateStructure)
	w.IVec3(m.Location)
	w.String(m.Block)
}

func unmarshalCreateStructure(r *Reader) CreateStructure {
	return CreateStructure{Location: r.IVec3(), Block: r.String()}
}

// DecodeServerbound reads a tagged Serverbound message from b.
func DecodeServerbound(b []byte) (any, error) {
	r := NewReader(b)
	tag := r.Uint8()
	var msg any
	switch tag {
	case ServerboundPlayerLocation:
		msg = unmarshalPlayerLocation(r)
	case ServerboundGiveTestItem:
		msg = GiveTestItem{}
	case ServerboundCreateStructure:
		msg = unmarshalCreateStructure(r)
	default:
		return nil, fmt.Errorf("wire: unknown serverbound tag %d", tag)
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return msg, nil
}

// DecodeClientbound reads a tagged Clientbound message from b. It is the
// inverse of the Clientbound Marshal methods; the connection layer doesn't
// use it, since it only ever writes Clientbound frames.
func DecodeClientbound(b []byte) (any, error) {
	r := NewReader(b)
	tag := r.Uint8()
	var msg any
	switch tag {
	case ClientboundSync:
		msg = unmarshalSync(r)
	case ClientboundSyncInventory:
		msg = unmarshalSyncInventory(r)
	case ClientboundSyncChunk:
		msg = unmarshalSyncChunk(r)
	case ClientboundRemoveChunk:
		msg = unmarshalRemoveChunk(r)
	case ClientboundSyncStructure:
		msg = unmarshalSyncStructure(r)
	default:
		return nil, fmt.Errorf("wire: unknown clientbound tag %d", tag)
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return msg, nil
}
