package embergine

import (
	"fmt"
	"sync"
)

// UniverseCommand is a deferred structural mutation applied at a safe point:
// end of tick, before the next state step.
type UniverseCommand interface {
	Run(u *Universe)
}

// FuncCommand adapts a closure into a UniverseCommand.
type FuncCommand func(u *Universe)

// Run applies the closure.
func (f FuncCommand) Run(u *Universe) { f(u) }

// UniverseCommands queues deferred mutations. Commands are drained FIFO; a
// command scheduling further commands sees them run on a later tick.
type UniverseCommands struct {
	mu    sync.Mutex
	queue []UniverseCommand
}

// NewUniverseCommands constructs an empty queue.
func NewUniverseCommands() *UniverseCommands {
	return &UniverseCommands{}
}

// Schedule enqueues a command.
func (c *UniverseCommands) Schedule(cmd UniverseCommand) {
	if cmd == nil {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, cmd)
	c.mu.Unlock()
}

// ScheduleFunc enqueues a closure command.
func (c *UniverseCommands) ScheduleFunc(f func(u *Universe)) {
	if f == nil {
		return
	}
	c.Schedule(FuncCommand(f))
}

// Len reports how many commands are pending.
func (c *UniverseCommands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Run takes the current queue and applies each command in order. Commands
// enqueued while running land in the fresh queue for the next tick.
func (c *UniverseCommands) Run(u *Universe) {
	c.mu.Lock()
	drained := c.queue
	c.queue = nil
	c.mu.Unlock()
	for _, cmd := range drained {
		cmd.Run(u)
	}
}

// NewSpawnCommand enqueues a new entity creation. If target is non-nil it
// receives the allocated ID when the command runs.
func NewSpawnCommand(target *EntityID) UniverseCommand {
	return spawnCommand{target: target}
}

// NewDespawnCommand enqueues an entity deletion.
func NewDespawnCommand(id EntityID) UniverseCommand {
	return despawnCommand{entity: id}
}

// NewSetComponentCommand enqueues a component addition.
func NewSetComponentCommand(id EntityID, component ComponentType, value any) UniverseCommand {
	return setComponentCommand{entity: id, component: component, value: value}
}

// NewRemoveComponentCommand enqueues a component removal.
func NewRemoveComponentCommand(id EntityID, component ComponentType) UniverseCommand {
	return removeComponentCommand{entity: id, component: component}
}

type spawnCommand struct {
	target *EntityID
}

type despawnCommand struct {
	entity EntityID
}

type setComponentCommand struct {
	entity    EntityID
	component ComponentType
	value     any
}

type removeComponentCommand struct {
	entity    EntityID
	component ComponentType
}

func (c spawnCommand) Run(u *Universe) {
	id := u.world.Spawn()
	if c.target != nil {
		*c.target = id
	}
}

func (c despawnCommand) Run(u *Universe) {
	if c.entity.IsZero() {
		u.logger.Error("despawn zero entity")
		return
	}
	if !u.world.Despawn(c.entity) {
		u.logger.Error("despawn stale entity", "entity", c.entity.String())
	}
}

func (c setComponentCommand) Run(u *Universe) {
	if err := u.world.SetComponent(c.entity, c.component, c.value); err != nil {
		u.logger.Error("set component command failed", "err", fmt.Sprint(err))
	}
}

func (c removeComponentCommand) Run(u *Universe) {
	if err := u.world.RemoveComponent(c.entity, c.component); err != nil {
		u.logger.Error("remove component command failed", "err", fmt.Sprint(err))
	}
}

var (
	_ UniverseCommand = spawnCommand{}
	_ UniverseCommand = despawnCommand{}
	_ UniverseCommand = setComponentCommand{}
	_ UniverseCommand = removeComponentCommand{}
)
