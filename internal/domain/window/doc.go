/*
Package window implements the lifecycle controller: the per-application
state machine, stacking order, window placement and the pointer drag
machine.

	Closed --Open--> Open --Minimize--> Minimized --Restore--> Open
	  ^                |                                        |
	  +-----Close------+----------------Close-------------------+

Close is a hard kill: the surface is destroyed, closure is announced on the
bus and only then does the resource registry release everything the
application holds. System applications come back after RestartDelay.

A pointer gesture is a click or a drag, never both. Movement of at least the
drag threshold on either axis turns a press into a drag; windows and icons
marked fixed can be pressed but never dragged.
*/
package window
