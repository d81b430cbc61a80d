// Package robot provides the Robot aggregate: one delivery robot of the fleet,
// its position, battery, payload capacity and the order it is bound to.
//
// A robot moves idle -> assigned -> picking_up -> delivering and back to idle
// on release. It carries at most one order at a time, and assignedOrderID is set
// exactly while it is not idle. Maintenance and offline robots never receive orders.
package robot
